// File path: internal/api/prompts_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/sqlite"
)

func promptID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid prompt id %q", raw)
	}
	return id, nil
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.store.ListPrompts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prompts": prompts,
		"count":   len(prompts),
	})
}

func (s *Server) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Nome) == "" || strings.TrimSpace(req.Texto) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("nome and texto required"))
		return
	}
	id, err := s.store.AddPrompt(r.Context(), req.Nome, req.Texto, req.Periodicidade)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	common.Logger().Info("api: prompt created", "id", id, "nome", req.Nome)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	id, err := promptID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	prompt, err := s.store.GetPrompt(r.Context(), id)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (s *Server) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	id, err := promptID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// Blank fields are left untouched; the update is partial.
	var nome, texto *string
	if strings.TrimSpace(req.Nome) != "" {
		nome = &req.Nome
	}
	if strings.TrimSpace(req.Texto) != "" {
		texto = &req.Texto
	}
	if err := s.store.UpdatePrompt(r.Context(), id, nome, texto, req.Periodicidade); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	id, err := promptID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeletePrompt(r.Context(), id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

// handleRunPrompts applies one ad-hoc prompt, or every registered prompt
// when the body is empty, across the stored contracts. Runs synchronously;
// progress is readable on the returned execution rows while a run is live.
func (s *Server) handleRunPrompts(w http.ResponseWriter, r *http.Request) {
	var req runPromptsRequest
	// An empty body means "run every registered prompt".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	common.Logger().Info("api: prompt run requested", "adhoc", strings.TrimSpace(req.Prompt) != "")
	execIDs, err := s.processor.Run(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"execution_ids": execIDs,
		"count":         len(execIDs),
	})
}
