// Package llm talks to the language model hosts used for SQL generation
// and chat: a local Ollama server by default, or OpenAI and Anthropic when
// an API key is configured.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultOllamaHost = "http://localhost:11434"
	DefaultTimeout    = 120 * time.Second
)

// Options are sampling settings. Zero values are left to the provider.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

var (
	// SQLOptions keep generation close to deterministic.
	SQLOptions  = Options{Temperature: 0.1, TopP: 0.9, MaxTokens: 1000}
	ChatOptions = Options{Temperature: 0.3, MaxTokens: 2000}
)

// Request is a single-turn completion.
type Request struct {
	Model   string
	System  string
	Prompt  string
	Options Options
}

// Model describes an installed or available model.
type Model struct {
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// Provider is implemented by every LLM backend.
type Provider interface {
	Name() string
	// Host is the base URL requests go to.
	Host() string
	// DefaultModel is used for requests that name no model.
	DefaultModel() string
	Generate(ctx context.Context, req Request) (string, error)
	Models(ctx context.Context) ([]Model, error)
}

// APIError is returned when the host answers with a non-2xx status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", providerTitle(e.Provider), e.StatusCode, e.Body)
}

func providerTitle(name string) string {
	switch name {
	case ProviderOllama:
		return "Ollama"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	}
	return name
}

// Config selects and configures a provider.
type Config struct {
	// Provider forces a backend. Empty picks Anthropic, then OpenAI, by
	// which key is set, and falls back to Ollama.
	Provider         string
	Model            string
	OllamaHost       string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	Timeout          time.Duration
	HTTPClient       *http.Client
}

// NewProvider builds the provider described by cfg.
func NewProvider(cfg Config) (Provider, error) {
	client := cfg.client()

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			name = ProviderAnthropic
		case cfg.OpenAIAPIKey != "":
			name = ProviderOpenAI
		default:
			name = ProviderOllama
		}
	}

	switch name {
	case ProviderOllama:
		return NewOllama(cfg.OllamaHost, cfg.Model, client), nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, client), nil
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.Model, client), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (supported: ollama, openai, anthropic)", cfg.Provider)
	}
}

func (cfg Config) client() *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
