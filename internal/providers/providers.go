// Package providers selects the model adapter named by the configuration.
package providers

import (
	"fmt"

	"phishdetect/internal/adapters/gemini"
	"phishdetect/internal/adapters/openai"
	"phishdetect/internal/adapters/scripted"
	"phishdetect/internal/config"
	"phishdetect/internal/ports"
)

func New(cfg config.Config) (ports.ModelFactory, error) {
	switch cfg.ModelProvider {
	case config.ProviderGemini:
		return gemini.Factory{Model: cfg.ModelName, BaseURL: cfg.ModelBaseURL}, nil
	case config.ProviderOpenAI:
		return openai.Factory{Model: cfg.ModelName, BaseURL: cfg.ModelBaseURL}, nil
	case config.ProviderOffline:
		return scripted.Offline(), nil
	}
	return nil, fmt.Errorf("providers: unknown model provider %q", cfg.ModelProvider)
}
