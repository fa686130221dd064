// Package oracle wraps the language-model providers used to normalize
// addresses behind one small interface.
package oracle

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrRateLimited is returned when the provider signals a rate limit
	// (HTTP 429). Callers stop retrying on it.
	ErrRateLimited = errors.New("oracle: rate limited")
	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("oracle: empty response")
	// ErrNoCredential is returned by New when no API key is configured.
	ErrNoCredential = errors.New("oracle: no credential configured")
)

// Request is one completion call. Temperature is always zero.
type Request struct {
	System string
	Prompt string
}

// Oracle answers a prompt with text.
type Oracle interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Provider names accepted in configuration.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config selects and configures a provider.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
}

// New builds the configured provider. A blank API key returns ErrNoCredential.
func New(cfg Config) (Oracle, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoCredential
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	}
	return nil, eris.Errorf("oracle: unknown provider %q", cfg.Provider)
}

func rateLimited(provider string, cause error) error {
	return eris.Wrapf(ErrRateLimited, "oracle: %s: %v", provider, cause)
}
