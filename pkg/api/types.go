package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/query"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port int
	Bind string
	// APIKey protects /api/v1 when set; an empty key disables the check.
	APIKey string
	// MaxBodyBytes limits request bodies. Defaults to 16 MiB.
	MaxBodyBytes int64
}

// DecodedRecord is one entry of a decode response
type DecodedRecord struct {
	Offset int64         `json:"offset"`
	Record *codec.Record `json:"record,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// ArchivedRecord describes a record stored in the archive
type ArchivedRecord struct {
	ID       ksuid.KSUID   `json:"id"`
	RecordID string        `json:"record_id,omitempty"`
	Size     int           `json:"size"`
	Record   *codec.Record `json:"record,omitempty"`
}

// ArchiveListing is the response of the archive list endpoint
type ArchiveListing struct {
	IDs  []ksuid.KSUID `json:"ids"`
	Next *ksuid.KSUID  `json:"next,omitempty"`
}

// SearchHit is one record matched by an archive search
type SearchHit struct {
	ID       ksuid.KSUID `json:"id"`
	RecordID string      `json:"record_id,omitempty"`
	Values   []string    `json:"values"`
}

// SearchResults is the response of the archive search endpoint
type SearchResults struct {
	Query   query.FieldQuery `json:"query"`
	Results []SearchHit      `json:"results"`
}
