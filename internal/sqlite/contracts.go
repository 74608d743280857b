// File path: internal/sqlite/contracts.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const contractInsertColumns = `(name, path, ingestion_date, last_processed, contrato,
        inicioPrazo, fimPrazo, empresa, icj, valorContratoOriginal, moeda, taxaCambio,
        gerenteContrato, nomeGerenteContrato, lotacaoGerenteContrato, areaContrato,
        modalidade, textoModalidade, reajuste, fornecedor, nomeFornecedor, tipoContrato,
        objetoContrato, linhasServico, vetor_embedding, texto_completo)
        VALUES (:name, :path, :ingestion_date, :last_processed, :contrato,
        :inicioPrazo, :fimPrazo, :empresa, :icj, :valorContratoOriginal, :moeda, :taxaCambio,
        :gerenteContrato, :nomeGerenteContrato, :lotacaoGerenteContrato, :areaContrato,
        :modalidade, :textoModalidade, :reajuste, :fornecedor, :nomeFornecedor, :tipoContrato,
        :objetoContrato, :linhasServico, :vetor_embedding, :texto_completo)`

// AddContract inserts a document-path contract row with minimal metadata.
func (s *Store) AddContract(ctx context.Context, name, path string, ingestionDate, lastProcessed *time.Time) (int64, error) {
	if err := s.ensureReady(); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	if ingestionDate == nil {
		ingestionDate = &now
	}
	if lastProcessed == nil {
		lastProcessed = &now
	}
	row := Contract{Name: name, Path: path, IngestionDate: ingestionDate, LastProcessed: lastProcessed}
	return s.insertContract(ctx, row)
}

// AddContractStructured inserts a contract row carrying the structured CSV
// metadata. Name and Path default to the business identifier, and the
// ingestion timestamps default to now, matching the structured export where
// no file backs the row.
func (s *Store) AddContractStructured(ctx context.Context, row Contract) (int64, error) {
	if err := s.ensureReady(); err != nil {
		return 0, err
	}
	if row.Contrato == nil || strings.TrimSpace(*row.Contrato) == "" {
		return 0, errors.New("contrato identifier required")
	}
	if strings.TrimSpace(row.Name) == "" {
		row.Name = *row.Contrato
	}
	if strings.TrimSpace(row.Path) == "" {
		row.Path = *row.Contrato
	}
	now := time.Now().UTC()
	if row.IngestionDate == nil {
		row.IngestionDate = &now
	}
	if row.LastProcessed == nil {
		row.LastProcessed = &now
	}
	return s.insertContract(ctx, row)
}

func (s *Store) insertContract(ctx context.Context, row Contract) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO contracts `+contractInsertColumns, row)
	if err != nil {
		return 0, fmt.Errorf("insert contract: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("contract insert id: %w", err)
	}
	return id, nil
}

// GetContractByPath returns the contract stored for the given file path, or
// ErrNotFound.
func (s *Store) GetContractByPath(ctx context.Context, path string) (*Contract, error) {
	return s.getContract(ctx, `SELECT * FROM contracts WHERE path = ? LIMIT 1`, path)
}

// GetContractByContrato returns the contract stored for the given business
// identifier, or ErrNotFound.
func (s *Store) GetContractByContrato(ctx context.Context, contrato string) (*Contract, error) {
	return s.getContract(ctx, `SELECT * FROM contracts WHERE contrato = ? LIMIT 1`, contrato)
}

func (s *Store) getContract(ctx context.Context, query string, arg interface{}) (*Contract, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	var row Contract
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select contract: %w", err)
	}
	return &row, nil
}

// ListContracts returns every stored contract ordered by surrogate id.
func (s *Store) ListContracts(ctx context.Context) ([]Contract, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	rows := []Contract{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM contracts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select contracts: %w", err)
	}
	return rows, nil
}

// UpdateProcessingDate refreshes last_processed for the contract stored at
// the given path. Missing rows are ignored.
func (s *Store) UpdateProcessingDate(ctx context.Context, path string, processed time.Time) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE contracts SET last_processed = ? WHERE path = ?`, processed.UTC(), path); err != nil {
		return fmt.Errorf("update processing date: %w", err)
	}
	return nil
}

// ClearContracts removes every contract row. Used by full structured reloads.
func (s *Store) ClearContracts(ctx context.Context) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contracts`); err != nil {
		return fmt.Errorf("clear contracts: %w", err)
	}
	return nil
}
