// File path: internal/llm/llm.go

// Package llm selects the language-model capability used by the prompt
// pipeline and the chatbot. Selection walks an explicit ordered list of
// provider factories; the first one that can be configured wins, and the
// local stub closes the chain so a provider is always available.
package llm

import (
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// providerFactories is the resolution order. A factory returns nil when its
// provider cannot be configured in the current environment.
var providerFactories = []func() Provider{
	newOpenAIFromEnv,
	func() Provider { return providers.NewLocalProvider() },
}

// NewProvider returns the first available provider from the factory chain.
func NewProvider() Provider {
	for _, factory := range providerFactories {
		if provider := factory(); provider != nil {
			return provider
		}
	}
	// Unreachable: the local factory never returns nil.
	return providers.NewLocalProvider()
}

func newOpenAIFromEnv() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("llm: OPENAI_API_KEY not set; falling back to local provider")
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("llm: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			logger.Info("llm: configuring OpenAI client with custom HTTP timeout", "timeout", timeout)
			opts = append(opts, option.WithRequestTimeout(timeout))
		}
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
		opts = append(opts, option.WithBaseURL(endpoint))
	} else {
		logger.Debug("llm: using default OpenAI endpoint")
	}
	client := openai.NewClient(opts...)
	logger.Info("llm: OpenAI provider selected")
	return providers.NewOpenAIProvider(client)
}
