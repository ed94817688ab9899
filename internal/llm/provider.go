// Package llm provides a uniform capability surface over chat and vision model
// backends. The orchestration core never speaks a vendor wire format directly.
package llm

import (
	"context"
	"fmt"

	"vita/internal/config"
	vitaerrors "vita/internal/errors"
	"vita/internal/logging"
)

// Provider is the capability contract every model backend implements.
type Provider interface {
	// Chat sends messages and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)

	// ChatStream forwards partial output through onChunk as it arrives and
	// returns the assembled result. onChunk is called from the request
	// goroutine; it must not block indefinitely.
	ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResult, error)

	// ChatWithVision sends image bytes plus a context hint to a vision model.
	ChatWithVision(ctx context.Context, req VisionRequest) (*ChatResult, error)

	// ValidateKey verifies credentials against the backend.
	ValidateKey(ctx context.Context) error

	// ReasoningModel and UtilityModel resolve the two always-available tiers.
	ReasoningModel() string
	UtilityModel() string
	VisionModel() string
}

// New builds a Provider from configuration via a keyed lookup.
func New(cfg config.ProviderConfig, logger logging.Logger) (Provider, error) {
	switch cfg.Name {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, vitaerrors.NewConfigError("no API key configured for provider %q", "openai")
		}
		return newOpenAIProvider(cfg, logger), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}
}
