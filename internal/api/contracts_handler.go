// File path: internal/api/contracts_handler.go
package api

import (
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/vbertoni/contratos/internal/contract"
	"github.com/vbertoni/contratos/internal/sqlite"
)

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contracts": rows,
		"count":     len(rows),
	})
}

// handleGetContract returns one contract by business identifier together
// with its rendered report.
func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	contrato := chi.URLParam(r, "contrato")
	row, err := s.store.GetContractByContrato(r.Context(), contrato)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	c, err := contract.FromRow(row)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contract":  row,
		"relatorio": c.Relatorio(),
	})
}
