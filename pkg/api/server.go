// Package api serves the record codec and archive over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/metrics"
)

var log = logging.Logger("iso2709/api")

const defaultMaxBodyBytes = 16 << 20

// Server holds the API server state
type Server struct {
	codec    *codec.RecordCodec
	archive  RecordArchive
	config   ServerConfig
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// NewServer creates a new API server. Missing dependencies get defaults: a
// MARC 21 codec, and metrics on a private registry that /metrics serves.
func NewServer(deps Dependencies, config ServerConfig) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		codec:    deps.Codec,
		archive:  deps.Archive,
		config:   config,
		metrics:  deps.Metrics,
		gatherer: deps.Gatherer,
	}
	if s.codec == nil {
		s.codec = codec.NewRecordCodec()
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		s.gatherer = reg
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// Router returns the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	m := s.metrics
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/swagger/doc.json", s.handleSwaggerDoc)

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(apiKeyMiddleware(s.config.APIKey, m))
		}

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Post("/records/decode", m.InstrumentHandler("POST", "/api/v1/records/decode", s.handleDecode))
		r.Post("/records/encode", m.InstrumentHandler("POST", "/api/v1/records/encode", s.handleEncode))

		if s.archive != nil {
			r.Post("/archive", m.InstrumentHandler("POST", "/api/v1/archive", s.handleArchivePut))
			r.Get("/archive", m.InstrumentHandler("GET", "/api/v1/archive", s.handleArchiveList))
			r.Get("/archive/search", m.InstrumentHandler("GET", "/api/v1/archive/search", s.handleArchiveSearch))
			r.Get("/archive/by-record-id/{recordID}", m.InstrumentHandler("GET", "/api/v1/archive/by-record-id/{recordID}", s.handleArchiveLookup))
			r.Get("/archive/{id}", m.InstrumentHandler("GET", "/api/v1/archive/{id}", s.handleArchiveGet))
			r.Delete("/archive/{id}", m.InstrumentHandler("DELETE", "/api/v1/archive/{id}", s.handleArchiveDelete))
		}
	})

	return r
}

// StartServer serves s until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, s *Server, config ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	SwaggerInfo.Host = addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting ISO 2709 API server", "addr", addr, "archive", s.archive != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Infow("shutting down API server", "addr", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
