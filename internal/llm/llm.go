package llm

import (
	"context"
	"errors"
)

// Client abstracts text-generation providers for the insights and chat
// panels. Implementations must honor the context deadline; callers treat any
// failure as panel-local and keep serving analytics.
type Client interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ErrNotConfigured is returned by the placeholder client when no provider
// credentials are present.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, system, user string) (string, error) {
	_ = ctx
	_ = system
	_ = user
	return "", ErrNotConfigured
}
