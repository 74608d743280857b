// File path: internal/api/server.go

// Package api exposes the contract pipeline over HTTP: ingestion triggers,
// the prompt library, execution tracking, and the chatbot.
package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/vbertoni/contratos/internal/chat"
	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/ingest"
	"github.com/vbertoni/contratos/internal/llm"
	"github.com/vbertoni/contratos/internal/processing"
	"github.com/vbertoni/contratos/internal/sqlite"
)

type Server struct {
	router    chi.Router
	store     *sqlite.Store
	provider  llm.Provider
	ingestor  *ingest.StructuredIngestor
	documents *ingest.DocumentIngestor
	processor *processing.ExhaustiveProcessor
	chatbot   *chat.Chatbot
	csvPath   string
}

// Config carries the default input locations used when a request does not
// name its own.
type Config struct {
	CSVPath     string
	DocumentDir string
}

func DefaultConfig() Config {
	return Config{
		CSVPath:     filepath.Join("data", "contratos.csv"),
		DocumentDir: filepath.Join("data", "documents"),
	}
}

// NewServer wires the pipeline components into the HTTP surface. documents
// may be nil when no document directory is configured.
func NewServer(store *sqlite.Store, provider llm.Provider, ingestor *ingest.StructuredIngestor,
	documents *ingest.DocumentIngestor, processor *processing.ExhaustiveProcessor,
	chatbot *chat.Chatbot, cfg Config) *Server {
	srv := &Server{
		router:    chi.NewRouter(),
		store:     store,
		provider:  provider,
		ingestor:  ingestor,
		documents: documents,
		processor: processor,
		chatbot:   chatbot,
		csvPath:   cfg.CSVPath,
	}
	srv.routes()
	common.Logger().Info("api: server ready", "provider", provider.Name())
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/api/ingest", s.handleIngestDocuments)
	s.router.Post("/api/ingest-structured", s.handleIngestStructured)
	s.router.Get("/api/ingest-structured/progress", s.handleIngestProgress)

	s.router.Get("/api/contracts", s.handleListContracts)
	s.router.Get("/api/contracts/{contrato}", s.handleGetContract)

	s.router.Get("/api/prompts", s.handleListPrompts)
	s.router.Post("/api/prompts", s.handleCreatePrompt)
	s.router.Get("/api/prompts/{id}", s.handleGetPrompt)
	s.router.Put("/api/prompts/{id}", s.handleUpdatePrompt)
	s.router.Delete("/api/prompts/{id}", s.handleDeletePrompt)
	s.router.Post("/api/prompts/run", s.handleRunPrompts)

	s.router.Get("/api/executions", s.handleListExecutions)
	s.router.Get("/api/executions/{id}", s.handleGetExecution)
	s.router.Get("/api/executions/{id}/results", s.handleExecutionResults)

	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func trimmedOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
