package llm

import (
	"fmt"

	"omnibot/internal/config"
)

// Factory creates the configured completion client.
type Factory struct {
	cfg *config.Config
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) Create() (Client, error) {
	switch f.cfg.AIProvider {
	case config.ProviderSession:
		if f.cfg.AIBaseURL == "" {
			return nil, fmt.Errorf("AI_BASE_URL is required for the session provider")
		}
		return NewSession(f.cfg.AIBaseURL, f.cfg.AIAPIKey), nil
	case config.ProviderOpenAI:
		return NewOpenAI(f.cfg.OpenAIAPIKey, f.cfg.OpenAIBaseURL, f.cfg.OpenAIModel), nil
	case config.ProviderYandex:
		return NewYandex(f.cfg.YandexOAuthToken, f.cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", f.cfg.AIProvider)
	}
}
