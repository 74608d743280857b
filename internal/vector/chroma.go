// File path: internal/vector/chroma.go

// Package vector wraps the Chroma vector store used for document similarity
// search. Embeddings come from the active language-model provider.
package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/chroma"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/llm"
)

// Client is a connected Chroma collection.
type Client struct {
	store     chroma.Store
	namespace string
}

// providerEmbedder adapts the llm provider to the embeddings client the
// vector store expects.
type providerEmbedder struct {
	provider llm.Provider
}

func (p *providerEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return p.provider.Embed(ctx, texts)
}

// New connects to the Chroma server described by cfg. cfg must be enabled;
// callers gate on Config.Enabled first.
func New(cfg Config, provider llm.Provider) (*Client, error) {
	embedder, err := embeddings.NewEmbedder(&providerEmbedder{provider: provider})
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	store, err := chroma.New(
		chroma.WithChromaURL(cfg.URL),
		chroma.WithEmbedder(embedder),
		chroma.WithNameSpace(cfg.Namespace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect chroma: %w", err)
	}
	common.Logger().Info("vector: chroma store connected", "url", cfg.URL, "namespace", cfg.Namespace)
	return &Client{store: store, namespace: cfg.Namespace}, nil
}

// AddDocument indexes one document. Metadata is augmented with a generated
// doc_id so entries remain addressable.
func (c *Client) AddDocument(ctx context.Context, text string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["doc_id"] = uuid.NewString()
	docs := []schema.Document{{PageContent: text, Metadata: metadata}}
	if _, err := c.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	common.Logger().Debug("vector: document indexed", "namespace", c.namespace)
	return nil
}

// SimilaritySearch returns the k documents closest to the query.
func (c *Client) SimilaritySearch(ctx context.Context, query string, k int) ([]schema.Document, error) {
	docs, err := c.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return docs, nil
}

// Available reports whether a Chroma collection is connected.
func (c *Client) Available() bool {
	return c != nil
}

// Retriever exposes the collection as a retriever for chain composition.
func (c *Client) Retriever(k int) vectorstores.Retriever {
	return vectorstores.ToRetriever(c.store, k)
}

// Persist is a durability hook. The Chroma server owns persistence, so this
// only confirms the flush point in the logs.
func (c *Client) Persist(ctx context.Context) error {
	common.Logger().Debug("vector: persist requested", "namespace", c.namespace)
	return nil
}
