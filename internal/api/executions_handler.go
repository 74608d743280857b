// File path: internal/api/executions_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/vbertoni/contratos/internal/sqlite"
)

func executionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid execution id %q", raw)
	}
	return id, nil
}

// handleListExecutions lists executions, filterable by status and by a
// start-time window via the status, start and end query parameters. Times
// are RFC 3339.
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var status *string
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status = &raw
	}
	start, err := parseTimeParam(query.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := parseTimeParam(query.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	executions, err := s.store.ListExecutions(r.Context(), status, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"executions": executions,
		"count":      len(executions),
	})
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := executionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	execution, err := s.store.GetExecution(r.Context(), id)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, execution)
}

func (s *Server) handleExecutionResults(w http.ResponseWriter, r *http.Request) {
	id, err := executionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	results, err := s.store.ResultsForExecution(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"execution_id": id,
		"results":      results,
		"count":        len(results),
	})
}

func parseTimeParam(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", trimmed, err)
	}
	return &parsed, nil
}
