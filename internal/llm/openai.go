package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when a request names no model.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI wraps the chat completions client.
type OpenAI struct {
	client  *openai.Client
	baseURL string
	model   string
}

func NewOpenAI(apiKey, baseURL, model string, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), baseURL: cfg.BaseURL, model: model}
}

func (o *OpenAI) Name() string { return ProviderOpenAI }
func (o *OpenAI) Host() string { return o.baseURL }

func (o *OpenAI) DefaultModel() string { return o.model }

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Options.Temperature),
		TopP:        float32(req.Options.TopP),
		MaxTokens:   req.Options.MaxTokens,
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) Models(ctx context.Context) ([]Model, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, openAIError(err)
	}
	models := make([]Model, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, Model{Name: m.ID, Provider: ProviderOpenAI})
	}
	return models, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	return fmt.Errorf("openai request failed: %w", err)
}
