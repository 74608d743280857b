// File path: internal/chat/chatbot.go

// Package chat answers free-form questions about the contract corpus with
// retrieval-augmented generation over the vector index. Without an index the
// model answers from the question alone.
package chat

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/llm"
	"github.com/vbertoni/contratos/internal/vector"
)

const defaultTopK = 4

// Answer is one chatbot reply with the document paths that grounded it.
type Answer struct {
	Resposta string   `json:"resposta"`
	Fontes   []string `json:"fontes,omitempty"`
}

type Chatbot struct {
	provider llm.Provider
	index    *vector.Client
	topK     int
}

type Option func(*Chatbot)

// WithTopK sets how many documents are retrieved per question.
func WithTopK(k int) Option {
	return func(c *Chatbot) {
		if k > 0 {
			c.topK = k
		}
	}
}

// NewChatbot builds the chatbot. index may be nil when the vector store is
// not configured.
func NewChatbot(provider llm.Provider, index *vector.Client, opts ...Option) *Chatbot {
	c := &Chatbot{provider: provider, index: index, topK: defaultTopK}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask answers one question. With a vector index the question runs through a
// retrieval QA chain and the answer carries its source document paths.
func (c *Chatbot) Ask(ctx context.Context, question string) (Answer, error) {
	logger := common.Logger()
	if c.index == nil {
		logger.Debug("chat: no vector index, answering without retrieval")
		resposta, err := c.provider.Chat(ctx, []llm.Message{{Role: "user", Content: question}})
		if err != nil {
			return Answer{}, fmt.Errorf("answer question: %w", err)
		}
		return Answer{Resposta: resposta}, nil
	}

	chain := chains.NewRetrievalQAFromLLM(&providerModel{provider: c.provider}, c.index.Retriever(c.topK))
	resposta, err := chains.Run(ctx, chain, question)
	if err != nil {
		return Answer{}, fmt.Errorf("run retrieval chain: %w", err)
	}

	fontes, err := c.sources(ctx, question)
	if err != nil {
		// The answer is already in hand; missing attribution is not fatal.
		logger.Warn("chat: source lookup failed", "error", err)
	}
	return Answer{Resposta: resposta, Fontes: fontes}, nil
}

// sources returns the distinct document paths retrieved for the question.
func (c *Chatbot) sources(ctx context.Context, question string) ([]string, error) {
	docs, err := c.index.SimilaritySearch(ctx, question, c.topK)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(docs))
	fontes := make([]string, 0, len(docs))
	for _, doc := range docs {
		source, ok := doc.Metadata["source"].(string)
		if !ok || source == "" {
			continue
		}
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		fontes = append(fontes, source)
	}
	return fontes, nil
}

// providerModel adapts the llm provider to the model interface the chain
// machinery expects.
type providerModel struct {
	provider llm.Provider
}

func (m *providerModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	converted := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, llm.Message{Role: roleFor(msg.Role), Content: flatten(msg.Parts)})
	}
	resposta, err := m.provider.Chat(ctx, converted)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: resposta}},
	}, nil
}

func (m *providerModel) Call(ctx context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	return m.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
}

func roleFor(role schema.ChatMessageType) string {
	switch role {
	case schema.ChatMessageTypeSystem:
		return "system"
	case schema.ChatMessageTypeAI:
		return "assistant"
	default:
		return "user"
	}
}

func flatten(parts []llms.ContentPart) string {
	var text string
	for _, part := range parts {
		if tc, ok := part.(llms.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}
