package llm

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Catalog returns a provider for every backend cfg can reach: Ollama
// always, OpenAI and Anthropic when their keys are set. Unlike NewProvider
// it ignores cfg.Provider.
func Catalog(cfg Config) []Provider {
	client := cfg.client()
	providers := []Provider{NewOllama(cfg.OllamaHost, "", client)}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, "", client))
	}
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, "", client))
	}
	return providers
}

// AllModels queries every provider concurrently and concatenates the
// results in provider order. Providers that fail are logged and skipped.
func AllModels(ctx context.Context, providers []Provider, logger log.FieldLogger) []Model {
	if logger == nil {
		logger = log.StandardLogger()
	}

	lists := make([][]Model, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			models, err := p.Models(ctx)
			if err != nil {
				logger.WithError(err).WithField("provider", p.Name()).Warn("failed to list models")
				return
			}
			lists[i] = models
		}(i, p)
	}
	wg.Wait()

	all := []Model{}
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}

// ErrUnknownProvider is returned for a provider name no backend answers to.
var ErrUnknownProvider = errors.New("unknown provider")

// ProviderModels lists the models of the named provider. A known provider
// that is not configured, or that fails, yields an empty list.
func ProviderModels(ctx context.Context, providers []Provider, name string, logger log.FieldLogger) ([]Model, error) {
	switch name {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
	default:
		return nil, ErrUnknownProvider
	}
	for _, p := range providers {
		if p.Name() == name {
			return AllModels(ctx, []Provider{p}, logger), nil
		}
	}
	return []Model{}, nil
}
