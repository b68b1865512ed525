// Package di provides dependency injection container
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/iso2709/pkg/api"     //nolint:depguard
	"github.com/ssargent/iso2709/pkg/storage" //nolint:depguard
)

// ArchiveOpener opens the record archive at path
type ArchiveOpener func(path string, opts storage.Options) (*storage.Archive, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	archiveOpener ArchiveOpener
	registry      *prometheus.Registry
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		archiveOpener: storage.Open,
		registry:      prometheus.NewRegistry(),
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenArchive opens the archive with the configured opener
func (c *Container) OpenArchive(path string, opts storage.Options) (*storage.Archive, error) {
	return c.archiveOpener(path, opts)
}

// SetArchiveOpener allows overriding how archives are opened (for testing)
func (c *Container) SetArchiveOpener(opener ArchiveOpener) {
	c.archiveOpener = opener
}

// Registry returns the metrics registry shared by the server components
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}
