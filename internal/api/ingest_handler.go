// File path: internal/api/ingest_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vbertoni/contratos/internal/common"
)

// handleIngestStructured loads the structured CSV export. The request may
// name an export path and request a full reload; otherwise the configured
// default path is read incrementally. The run is synchronous and the tracked
// execution id comes back with the response.
func (s *Server) handleIngestStructured(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req ingestStructuredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path := trimmedOrDefault(req.Path, s.csvPath)
	logger.Info("api: structured ingest requested", "path", path, "full_load", req.FullLoad)
	execID, err := s.ingestor.IngestFile(r.Context(), path, req.FullLoad)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"execution_id": execID,
		"progress":     s.ingestor.Progress(),
	})
}

// handleIngestProgress reports the structured ingestor's progress on a 0-100
// scale, for polling alongside the execution row.
func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": s.ingestor.Progress(),
	})
}

// handleIngestDocuments scans the configured document directory.
func (s *Server) handleIngestDocuments(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("document ingestion not configured"))
		return
	}
	common.Logger().Info("api: document ingest requested")
	ingested, err := s.documents.Ingest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ingested": ingested,
	})
}
