package fingerprint

import (
	"fmt"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/ai/openai"
	"github.com/poiesic/fingerprint/ai/static"
)

// NewProvider creates the embedding provider selected by cfg.Provider.
func NewProvider(cfg *ai.Config) (ai.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(cfg)
	case ai.ProviderStatic:
		return static.NewProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, cfg.Provider)
	}
}
