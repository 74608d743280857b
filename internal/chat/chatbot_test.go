// File path: internal/chat/chatbot_test.go
package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/vbertoni/contratos/internal/llm/providers"
)

func TestAskWithoutIndex(t *testing.T) {
	chatbot := NewChatbot(providers.NewLocalProvider(), nil)

	answer, err := chatbot.Ask(context.Background(), "Quais contratos vencem em 2026?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.HasPrefix(answer.Resposta, "[local-stub] ") {
		t.Fatalf("unexpected answer: %q", answer.Resposta)
	}
	if len(answer.Fontes) != 0 {
		t.Fatalf("expected no sources without an index, got %v", answer.Fontes)
	}
}

func TestProviderModelCall(t *testing.T) {
	model := &providerModel{provider: providers.NewLocalProvider()}

	out, err := model.Call(context.Background(), "pergunta direta")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out != "[local-stub] pergunta direta" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestProviderModelGenerateContent(t *testing.T) {
	model := &providerModel{provider: providers.NewLocalProvider()}

	messages := []llms.MessageContent{
		{Role: schema.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextContent{Text: "contexto"}}},
		{Role: schema.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: "pergunta "}, llms.TextContent{Text: "composta"}}},
	}
	resp, err := model.GenerateContent(context.Background(), messages)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("expected one choice, got %d", len(resp.Choices))
	}
	if resp.Choices[0].Content != "[local-stub] pergunta composta" {
		t.Fatalf("unexpected content: %q", resp.Choices[0].Content)
	}
}
