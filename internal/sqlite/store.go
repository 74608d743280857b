// File path: internal/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("sqlite: row not found")

var errNilStore = errors.New("sqlite store not initialised")

// Store wraps a pooled sqlx.DB connection to the contract database. It is the
// single relational capability consumed by the ingestion and processing
// pipelines: contracts, prompts, executions and execution results all live
// here.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) ensureReady() error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Column names mirror the export the structured ingestor consumes, so the
// mixed-case identifiers are intentional.
var schemaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA foreign_keys = ON;`,
	`CREATE TABLE IF NOT EXISTS contracts (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                name TEXT NOT NULL,
                path TEXT NOT NULL,
                ingestion_date DATETIME,
                last_processed DATETIME,
                contrato TEXT,
                inicioPrazo DATETIME,
                fimPrazo DATETIME,
                empresa TEXT,
                icj TEXT,
                valorContratoOriginal REAL,
                moeda TEXT,
                taxaCambio REAL,
                gerenteContrato TEXT,
                nomeGerenteContrato TEXT,
                lotacaoGerenteContrato TEXT,
                areaContrato TEXT,
                modalidade TEXT,
                textoModalidade TEXT,
                reajuste TEXT,
                fornecedor TEXT,
                nomeFornecedor TEXT,
                tipoContrato TEXT,
                objetoContrato TEXT,
                linhasServico TEXT,
                vetor_embedding TEXT,
                texto_completo TEXT
        );`,
	`CREATE TABLE IF NOT EXISTS prompts (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                nome TEXT NOT NULL,
                texto TEXT NOT NULL,
                periodicidade TEXT
        );`,
	`CREATE TABLE IF NOT EXISTS executions (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                task_name TEXT NOT NULL,
                class_name TEXT NOT NULL,
                tipo TEXT,
                prompt_id INTEGER,
                prompt_text TEXT,
                start_time DATETIME NOT NULL,
                end_time DATETIME,
                status TEXT NOT NULL DEFAULT 'running',
                progress REAL NOT NULL DEFAULT 0.0,
                message TEXT,
                FOREIGN KEY(prompt_id) REFERENCES prompts(id) ON DELETE SET NULL
        );`,
	`CREATE TABLE IF NOT EXISTS execution_results (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                execution_id INTEGER NOT NULL,
                contract_id INTEGER,
                resposta_completa TEXT,
                resposta_simples TEXT,
                confianca REAL,
                FOREIGN KEY(execution_id) REFERENCES executions(id) ON DELETE CASCADE,
                FOREIGN KEY(contract_id) REFERENCES contracts(id) ON DELETE SET NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_contrato ON contracts(contrato);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_path ON contracts(path);`,
	`CREATE INDEX IF NOT EXISTS idx_executions_status_start ON executions(status, start_time);`,
	`CREATE INDEX IF NOT EXISTS idx_execution_results_execution ON execution_results(execution_id);`,
}
