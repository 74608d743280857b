// File path: internal/vector/config.go
package vector

import (
	"os"
	"strings"
)

// Config holds the Chroma connection settings. An empty URL disables the
// vector index entirely; the rest of the system degrades to relational-only
// operation.
type Config struct {
	URL       string
	Namespace string
}

func DefaultConfig() Config {
	return Config{Namespace: "contratos"}
}

// LoadConfig reads the CHROMA_* environment variables over the defaults.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if url := strings.TrimSpace(os.Getenv("CHROMA_URL")); url != "" {
		cfg.URL = url
	}
	if ns := strings.TrimSpace(os.Getenv("CHROMA_NAMESPACE")); ns != "" {
		cfg.Namespace = ns
	}
	return cfg
}

func (c Config) Enabled() bool {
	return c.URL != ""
}
