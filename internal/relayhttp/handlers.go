package relayhttp

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Azunyan1111/go-webm-relay/internal/ebml"
	"github.com/Azunyan1111/go-webm-relay/internal/webm"
)

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	log := s.sessionLogger(name)

	listener := s.registry.Channel(name).Listen(s.queueSize)
	defer listener.Close()

	log.Info("listener connected")
	defer log.Info("listener disconnected")

	writeMediaHeaders(w)
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	_ = rc.Flush()

	var fixer webm.TimecodeFixer
	var filter webm.StartingPointFilter
	for {
		chunk, resync, err := listener.Recv(r.Context())
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				log.Warn("listener receive failed", zap.Error(err))
			}
			return
		}
		if resync {
			log.Debug("listener lagged, re-aligning at next cluster")
			filter.Reset()
		}

		chunk = fixer.Process(chunk)
		if !filter.Keep(chunk) {
			continue
		}
		if _, err := w.Write(chunk.Bytes()); err != nil {
			return
		}
		_ = rc.Flush()
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	log := s.sessionLogger(name)

	tx, err := s.registry.Channel(name).Transmit()
	if err != nil {
		log.Warn("rejecting concurrent transmitter")
		http.Error(w, "channel already has a transmitter", http.StatusConflict)
		return
	}
	defer tx.Close()

	log.Info("source connected")
	defer log.Info("source disconnected")

	source := ebml.NewSource[webm.Event](r.Body, webm.Schema{})
	source.SetSoftLimit(s.bufferLimit)
	chunker := webm.NewChunker()
	for {
		event, err := source.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				// Parse failures end this ingest only; listeners drain
				// their queues and see end-of-stream.
				log.Warn("ingest stream failed", zap.Error(err))
			}
			return
		}
		chunks, err := chunker.Push(event)
		if err != nil {
			log.Warn("chunking failed", zap.Error(err))
			return
		}
		for _, chunk := range chunks {
			tx.Send(chunk)
		}
	}
}
