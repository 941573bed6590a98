package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"

	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4000
)

// Anthropic calls the Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewAnthropic(apiKey, baseURL, model string, client *http.Client) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Anthropic{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), model: model, client: client}
}

func (a *Anthropic) Name() string { return ProviderAnthropic }
func (a *Anthropic) Host() string { return a.baseURL }

func (a *Anthropic) DefaultModel() string { return a.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicModelsResponse struct {
	Data []struct {
		ID        string `json:"id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	payload := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.Options.MaxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	if payload.Model == "" {
		payload.Model = a.model
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = anthropicMaxTokens
	}
	if req.Options.Temperature > 0 {
		t := req.Options.Temperature
		payload.Temperature = &t
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	a.authorize(httpReq)

	var out anthropicResponse
	if err := doJSON(a.client, httpReq, ProviderAnthropic, &out); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}

func (a *Anthropic) Models(ctx context.Context) ([]Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	a.authorize(httpReq)

	var out anthropicModelsResponse
	if err := doJSON(a.client, httpReq, ProviderAnthropic, &out); err != nil {
		return nil, err
	}
	models := make([]Model, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, Model{Name: m.ID, Provider: ProviderAnthropic, ModifiedAt: m.CreatedAt})
	}
	return models, nil
}

func (a *Anthropic) authorize(r *http.Request) {
	r.Header.Set("x-api-key", a.apiKey)
	r.Header.Set("anthropic-version", anthropicVersion)
}
