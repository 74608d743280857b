// File path: internal/llm/llm_test.go
package llm

import (
	"context"
	"strings"
	"testing"
)

func TestNewProviderFallsBackToLocal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	provider := NewProvider()
	if provider.Name() != "local" {
		t.Fatalf("expected local fallback, got %q", provider.Name())
	}

	answer, err := provider.Chat(context.Background(), []Message{{Role: "user", Content: "ola"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.HasPrefix(answer, "[local-stub] ") {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestNewProviderSelectsOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_HTTP_TIMEOUT", "30s")

	provider := NewProvider()
	if provider.Name() != "openai" {
		t.Fatalf("expected openai provider, got %q", provider.Name())
	}
}

func TestLocalEmbedShapes(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	provider := NewProvider()
	vectors, err := provider.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected one vector per input, got %d", len(vectors))
	}
}
