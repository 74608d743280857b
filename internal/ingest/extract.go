// File path: internal/ingest/extract.go
package ingest

import (
	"fmt"
	"os"
)

// Extractor turns one document file into plain text. Implementations for
// binary formats (PDF, DOCX) are registered by the host process; plain-text
// formats are built in.
type Extractor func(path string) (string, error)

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func defaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		".txt": readPlainText,
		".md":  readPlainText,
	}
}
