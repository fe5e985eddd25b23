package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoaudit/autoaudit-backend/pkg/config"
)

// Chat message roles as stored by the application. Provider clients translate
// these into whatever vocabulary their API expects; stored values never
// change.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn passed to the model.
type Message struct {
	Role    string
	Content string
}

// Request describes a single completion call: an optional system prompt, the
// ordered conversation turns, and at most one inline image attached to the
// final user turn.
type Request struct {
	System    string
	Messages  []Message
	ImageData []byte
	ImageMIME string
}

// Client generates a completion for a request. All hosted providers
// (OpenAI-compatible endpoints, Gemini) implement this interface.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewFromConfig selects a provider implementation based on configuration.
func NewFromConfig(cfg config.AIConfig, model string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.AIProviderOpenAI:
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, model, cfg.RequestTimeout), nil
	case config.AIProviderGemini:
		return NewGeminiClient(cfg.APIKey, model, cfg.RequestTimeout)
	}
	return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}
