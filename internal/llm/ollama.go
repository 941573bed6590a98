package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultOllamaModel is used when a request names no model.
const DefaultOllamaModel = "llama3.2"

// Ollama calls the /api/generate and /api/tags endpoints of an Ollama host.
type Ollama struct {
	host   string
	model  string
	client *http.Client
}

func NewOllama(host, model string, client *http.Client) *Ollama {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Ollama{host: strings.TrimRight(host, "/"), model: model, client: client}
}

func (o *Ollama) Name() string { return ProviderOllama }
func (o *Ollama) Host() string { return o.host }

func (o *Ollama) DefaultModel() string { return o.model }

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string `json:"name"`
		Size       int64  `json:"size"`
		Digest     string `json:"digest"`
		ModifiedAt string `json:"modified_at"`
	} `json:"models"`
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Options: ollamaOptions{
			Temperature: req.Options.Temperature,
			TopP:        req.Options.TopP,
			NumPredict:  req.Options.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out ollamaGenerateResponse
	if err := doJSON(o.client, httpReq, ProviderOllama, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (o *Ollama) Models(ctx context.Context) ([]Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	var out ollamaTagsResponse
	if err := doJSON(o.client, httpReq, ProviderOllama, &out); err != nil {
		return nil, err
	}

	models := make([]Model, 0, len(out.Models))
	for _, m := range out.Models {
		models = append(models, Model{
			Name:       m.Name,
			Provider:   ProviderOllama,
			Size:       m.Size,
			Digest:     m.Digest,
			ModifiedAt: m.ModifiedAt,
		})
	}
	return models, nil
}

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 4 << 10

// doJSON sends req and decodes a 2xx body into out. Other statuses become
// an *APIError carrying the response text.
func doJSON(client *http.Client, req *http.Request, provider string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", provider, err)
	}
	return nil
}
