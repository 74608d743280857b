// File path: internal/ingest/documents.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/sqlite"
)

// DocumentStore is the slice of the relational store the document ingestor
// depends on.
type DocumentStore interface {
	GetContractByPath(ctx context.Context, path string) (*sqlite.Contract, error)
	AddContract(ctx context.Context, name, path string, ingestionDate, lastProcessed *time.Time) (int64, error)
	UpdateProcessingDate(ctx context.Context, path string, processed time.Time) error
}

// VectorIndex receives document text for similarity search. Optional; a nil
// index means documents are only registered in the relational store.
type VectorIndex interface {
	AddDocument(ctx context.Context, text string, metadata map[string]any) error
	Persist(ctx context.Context) error
}

// DocumentIngestor walks a directory of contract documents, registers each
// file in the store, and indexes its text in the vector index. Files already
// registered only get their last_processed timestamp refreshed.
type DocumentIngestor struct {
	dir        string
	store      DocumentStore
	index      VectorIndex
	extractors map[string]Extractor
}

type DocumentOption func(*DocumentIngestor)

// WithExtractor registers the extractor for a file extension (".pdf").
func WithExtractor(ext string, fn Extractor) DocumentOption {
	return func(d *DocumentIngestor) {
		d.extractors[strings.ToLower(ext)] = fn
	}
}

func NewDocumentIngestor(dir string, store DocumentStore, index VectorIndex, opts ...DocumentOption) *DocumentIngestor {
	d := &DocumentIngestor{
		dir:        dir,
		store:      store,
		index:      index,
		extractors: defaultExtractors(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ingest processes every supported file in the directory and returns how
// many new documents were registered. Extraction failures skip the file;
// storage and index failures abort the run.
func (d *DocumentIngestor) Ingest(ctx context.Context) (int, error) {
	logger := common.Logger()
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("read document directory: %w", err)
	}

	ingested := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		extract, ok := d.extractors[ext]
		if !ok {
			logger.Debug("ingest: unsupported document type", "file", entry.Name())
			continue
		}
		path := filepath.Join(d.dir, entry.Name())

		existing, err := d.store.GetContractByPath(ctx, path)
		if err != nil && !errors.Is(err, sqlite.ErrNotFound) {
			return ingested, fmt.Errorf("check document %s: %w", path, err)
		}
		if existing != nil {
			if err := d.store.UpdateProcessingDate(ctx, path, time.Now().UTC()); err != nil {
				return ingested, err
			}
			logger.Debug("ingest: document already registered", "path", path)
			continue
		}

		text, err := extract(path)
		if err != nil {
			logger.Warn("ingest: extraction failed, skipping document", "path", path, "error", err)
			continue
		}
		if d.index != nil {
			if err := d.index.AddDocument(ctx, text, map[string]any{"source": path}); err != nil {
				return ingested, fmt.Errorf("index document %s: %w", path, err)
			}
		}
		if _, err := d.store.AddContract(ctx, entry.Name(), path, nil, nil); err != nil {
			return ingested, fmt.Errorf("register document %s: %w", path, err)
		}
		ingested++
		logger.Info("ingest: document registered", "path", path)
	}

	if d.index != nil && ingested > 0 {
		if err := d.index.Persist(ctx); err != nil {
			return ingested, fmt.Errorf("persist vector index: %w", err)
		}
	}
	logger.Info("ingest: document scan complete", "dir", d.dir, "new", ingested)
	return ingested, nil
}
