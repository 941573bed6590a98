package llm

import (
	"fmt"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// TokenEstimator counts tokens for a given text. The counts are estimates;
// providers tokenize with their own vocabularies.
type TokenEstimator interface {
	Model() string
	Count(text string) (int, error)
}

type tiktokenEstimator struct {
	model string
	mu    sync.Mutex
	enc   *tiktoken.Tiktoken
}

func (e *tiktokenEstimator) Model() string { return e.model }

func (e *tiktokenEstimator) Count(text string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.enc.Encode(text, nil, nil)), nil
}

func NewTokenEstimator(encoding string) (TokenEstimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding %q: %w", encoding, err)
	}
	return &tiktokenEstimator{model: encoding, enc: enc}, nil
}

// TokenUsage is attached to generation responses when estimation is on.
type TokenUsage struct {
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
	Encoding         string `json:"encoding,omitempty"`
}

// EstimateUsage returns nil when est is nil or counting fails.
func EstimateUsage(est TokenEstimator, prompt, completion string) *TokenUsage {
	if est == nil {
		return nil
	}
	in, err := est.Count(prompt)
	if err != nil {
		return nil
	}
	out, err := est.Count(completion)
	if err != nil {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
		Encoding:         est.Model(),
	}
}
