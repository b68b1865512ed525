// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/metrics"
)

// RecordArchive is the archive the server stores records in.
// *storage.Archive implements it.
type RecordArchive interface {
	Put(data []byte) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	Lookup(recordID string) (ksuid.KSUID, error)
	List(after ksuid.KSUID, limit int) ([]ksuid.KSUID, error)
}

// Dependencies are the services a server is built from. Archive may be nil,
// which disables the archive routes.
type Dependencies struct {
	Codec    *codec.RecordCodec
	Archive  RecordArchive
	Metrics  *metrics.Metrics
	// Gatherer is served on /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled or the listener fails
	StartServer(ctx context.Context, config ServerConfig, deps Dependencies) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
