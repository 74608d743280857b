// File path: internal/ingest/structured.go

// Package ingest loads contracts into the store, either from the structured
// CSV export or from a directory of contract documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/contract"
	"github.com/vbertoni/contratos/internal/employees"
	"github.com/vbertoni/contratos/internal/processing"
	"github.com/vbertoni/contratos/internal/sqlite"
)

// StructuredStore is the slice of the relational store the structured
// ingestor depends on.
type StructuredStore interface {
	processing.TrackerStore
	ClearContracts(ctx context.Context) error
	GetContractByContrato(ctx context.Context, contrato string) (*sqlite.Contract, error)
	AddContractStructured(ctx context.Context, row sqlite.Contract) (int64, error)
}

// StructuredIngestor loads the semicolon-wrapped contract export into the
// store, one row per distinct contrato with its service lines aggregated.
// Each run is recorded as a tracked execution.
type StructuredIngestor struct {
	store    StructuredStore
	resolver *employees.Resolver

	mu       sync.Mutex
	progress float64
}

func NewStructuredIngestor(store StructuredStore, resolver *employees.Resolver) *StructuredIngestor {
	return &StructuredIngestor{store: store, resolver: resolver}
}

// Progress reports the fraction of contract groups persisted in the current
// or most recent run, on a 0-100 scale.
func (s *StructuredIngestor) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *StructuredIngestor) setProgress(p float64) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

// contractGroup aggregates every export row sharing one contrato identifier.
// Contract-level fields come from the first row seen; later rows contribute
// service lines only.
type contractGroup struct {
	first  parsedRow
	linhas []contract.LinhaServico
}

// IngestFile runs a tracked ingestion of the export at path. With fullLoad
// the contract table is cleared first; otherwise contratos already stored
// are skipped. Returns the execution id of the run.
func (s *StructuredIngestor) IngestFile(ctx context.Context, path string, fullLoad bool) (int64, error) {
	logger := common.Logger()
	tracker := processing.NewTracker(s.store, "structured_ingest", "StructuredIngestor")
	execID, err := tracker.Start(ctx)
	if err != nil {
		return 0, fmt.Errorf("start ingest tracking: %w", err)
	}
	s.setProgress(0)

	fail := func(cause error) (int64, error) {
		if ferr := tracker.Finish(ctx, processing.StatusFailed); ferr != nil {
			logger.Error("ingest: failed to finalize execution", "execution", execID, "error", ferr)
		}
		return execID, cause
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(fmt.Errorf("open structured export: %w", err))
	}
	defer f.Close()

	rows, err := readStructuredRows(f)
	if err != nil {
		return fail(err)
	}

	if fullLoad {
		logger.Info("ingest: full load requested, clearing contracts")
		if err := s.store.ClearContracts(ctx); err != nil {
			return fail(fmt.Errorf("clear contracts for full load: %w", err))
		}
	}

	groups, order := groupRows(rows)
	total := len(order)
	logger.Info("ingest: structured export parsed", "path", path, "rows", len(rows), "contratos", total)
	if total == 0 {
		// No per-contract updates happen, but the execution row still ends
		// at 100 so pollers see the same value as Progress().
		s.setProgress(100)
		final := 100.0
		if err := tracker.Update(ctx, sqlite.ExecutionUpdate{Progress: &final}); err != nil {
			return fail(fmt.Errorf("publish ingest progress: %w", err))
		}
		if err := tracker.Finish(ctx, processing.StatusSuccess); err != nil {
			return execID, fmt.Errorf("finalize ingest execution: %w", err)
		}
		return execID, nil
	}

	inserted := 0
	for i, contrato := range order {
		group := groups[contrato]
		existing, err := s.store.GetContractByContrato(ctx, contrato)
		if err != nil && !errors.Is(err, sqlite.ErrNotFound) {
			return fail(fmt.Errorf("check contrato %s: %w", contrato, err))
		}
		if existing != nil {
			logger.Debug("ingest: contrato already stored, skipping", "contrato", contrato)
		} else {
			row, err := s.buildContract(ctx, contrato, group)
			if err != nil {
				return fail(err)
			}
			if _, err := s.store.AddContractStructured(ctx, row); err != nil {
				return fail(fmt.Errorf("store contrato %s: %w", contrato, err))
			}
			inserted++
		}

		progress := float64(i+1) / float64(total) * 100
		s.setProgress(progress)
		if err := tracker.Update(ctx, sqlite.ExecutionUpdate{Progress: &progress}); err != nil {
			return fail(fmt.Errorf("publish ingest progress: %w", err))
		}
	}

	if err := tracker.Finish(ctx, processing.StatusSuccess); err != nil {
		return execID, fmt.Errorf("finalize ingest execution: %w", err)
	}
	logger.Info("ingest: structured load complete", "execution", execID, "contratos", total, "inserted", inserted)
	return execID, nil
}

// groupRows folds the parsed rows by contrato, preserving first-occurrence
// order.
func groupRows(rows []parsedRow) (map[string]*contractGroup, []string) {
	groups := make(map[string]*contractGroup, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		group, ok := groups[row.Contrato]
		if !ok {
			group = &contractGroup{first: row}
			groups[row.Contrato] = group
			order = append(order, row.Contrato)
		}
		group.linhas = append(group.linhas, row.Linha)
	}
	return groups, order
}

// buildContract turns one aggregated group into a store row, enriching the
// manager key with the resolved employee record.
func (s *StructuredIngestor) buildContract(ctx context.Context, contrato string, group *contractGroup) (sqlite.Contract, error) {
	first := group.first
	linhas, err := contract.EncodeLinhas(group.linhas)
	if err != nil {
		return sqlite.Contract{}, fmt.Errorf("encode service lines for %s: %w", contrato, err)
	}

	row := sqlite.Contract{
		Contrato:              &contrato,
		InicioPrazo:           first.InicioPrazo,
		FimPrazo:              first.FimPrazo,
		Empresa:               first.Empresa,
		ICJ:                   first.ICJ,
		ValorContratoOriginal: first.ValorOriginal,
		Moeda:                 first.Moeda,
		TaxaCambio:            first.TaxaCambio,
		Modalidade:            first.Modalidade,
		TextoModalidade:       first.TextoModalidade,
		Reajuste:              first.Reajuste,
		Fornecedor:            first.Fornecedor,
		NomeFornecedor:        first.NomeFornecedor,
		TipoContrato:          first.TipoContrato,
		ObjetoContrato:        first.ObjetoContrato,
		LinhasServico:         &linhas,
	}
	if first.Gerente != "" {
		gerente := first.Gerente
		row.GerenteContrato = &gerente
		emp := s.resolver.Resolve(ctx, gerente)
		row.NomeGerenteContrato = &emp.Nome
		row.LotacaoGerenteContrato = &emp.Lotacao
	}
	return row, nil
}
