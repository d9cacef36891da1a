// Package relayhttp exposes the relay over HTTP: sources POST or PUT a WebM
// byte stream to /live/{name}, listeners GET the same path.
package relayhttp

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Azunyan1111/go-webm-relay/internal/relay"
)

// DefaultIngestBufferLimit is the soft cap for the per-ingest rolling
// buffer; the hard cap, at which ingest fails, is twice this (2 MiB).
const DefaultIngestBufferLimit = 1024 * 1024

// Server serves the /live routes over a channel registry.
type Server struct {
	registry    *relay.Registry
	log         *zap.Logger
	queueSize   int
	bufferLimit int
}

func New(registry *relay.Registry, log *zap.Logger) *Server {
	return &Server{
		registry:    registry,
		log:         log,
		queueSize:   relay.DefaultQueueSize,
		bufferLimit: DefaultIngestBufferLimit,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("HEAD /live/{name}", s.handleHead)
	mux.HandleFunc("GET /live/{name}", s.handleListen)
	mux.HandleFunc("POST /live/{name}", s.handleIngest)
	mux.HandleFunc("PUT /live/{name}", s.handleIngest)
	return mux
}

func writeMediaHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "video/webm")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Cache-Control", "no-cache, no-store")
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	writeMediaHeaders(w)
	w.WriteHeader(http.StatusOK)
}
