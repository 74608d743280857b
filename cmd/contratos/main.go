// File path: cmd/contratos/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vbertoni/contratos/internal/api"
	"github.com/vbertoni/contratos/internal/chat"
	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/employees"
	"github.com/vbertoni/contratos/internal/ingest"
	"github.com/vbertoni/contratos/internal/llm"
	"github.com/vbertoni/contratos/internal/processing"
	"github.com/vbertoni/contratos/internal/sqlite"
	"github.com/vbertoni/contratos/internal/vector"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("contratos: .env file not loaded", "error", err)
	} else {
		logger.Info("contratos: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "", "path to the SQLite database (overrides CONTRATOS_DB_PATH)")
	csvPath := flag.String("csv", defaultCSVPath(), "path to the structured contract export")
	docDir := flag.String("docs", defaultDocumentDir(), "directory of contract documents (empty to disable)")
	flag.Parse()

	logger.Info("contratos: startup initiated", "addr", *addr)

	storeCfg, err := sqlite.LoadConfig()
	if err != nil {
		logger.Error("contratos: store config load failed", "error", err)
		fmt.Println("store config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		storeCfg.Path = trimmed
	}
	store, err := sqlite.OpenWithConfig(storeCfg)
	if err != nil {
		logger.Error("contratos: store open failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer store.Close()

	provider := llm.NewProvider()
	logger.Info("contratos: provider selected", "provider", provider.Name())

	var index *vector.Client
	if vecCfg := vector.LoadConfig(); vecCfg.Enabled() {
		index, err = vector.New(vecCfg, provider)
		if err != nil {
			logger.Error("contratos: vector store unavailable", "error", err)
			fmt.Println("vector store error:", err)
			os.Exit(1)
		}
	} else {
		logger.Info("contratos: vector store not configured")
	}

	resolver := employees.NewResolver(nil)
	ingestor := ingest.NewStructuredIngestor(store, resolver)
	processor := processing.NewExhaustiveProcessor(store, provider)
	chatbot := chat.NewChatbot(provider, index)

	var documents *ingest.DocumentIngestor
	if trimmed := strings.TrimSpace(*docDir); trimmed != "" {
		// The nil check matters: a typed nil *vector.Client must not reach
		// the ingestor's interface field.
		if index != nil {
			documents = ingest.NewDocumentIngestor(trimmed, store, index)
		} else {
			documents = ingest.NewDocumentIngestor(trimmed, store, nil)
		}
	}

	cfg := api.DefaultConfig()
	if trimmed := strings.TrimSpace(*csvPath); trimmed != "" {
		cfg.CSVPath = trimmed
	}
	if trimmed := strings.TrimSpace(*docDir); trimmed != "" {
		cfg.DocumentDir = trimmed
	}

	server := api.NewServer(store, provider, ingestor, documents, processor, chatbot, cfg)

	logger.Info("contratos: server listening", "addr", *addr, "health", "/health")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("contratos: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultCSVPath() string {
	return filepath.Join("data", "contratos.csv")
}

func defaultDocumentDir() string {
	return filepath.Join("data", "documents")
}
