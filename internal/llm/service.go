package llm

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Service runs SQL generation and chat against one provider, with an
// optional response cache and token estimator.
type Service struct {
	Provider  Provider
	Cache     *Cache
	Estimator TokenEstimator
	Logger    log.FieldLogger
}

// Generation is the result of GenerateSQL.
type Generation struct {
	SQL    string
	Cached bool
	Usage  *TokenUsage
}

// GenerateSQL asks the model for a query answering request. schema, when
// set, is the formatted schema text placed in the prompt.
func (s *Service) GenerateSQL(ctx context.Context, request, schema, model string) (Generation, error) {
	prompt := BuildSQLPrompt(request, schema)
	provider := s.Provider.Name()
	if model == "" {
		model = s.Provider.DefaultModel()
	}

	if sql, ok := s.Cache.Get(provider, model, prompt); ok {
		s.logger().WithFields(log.Fields{"provider": provider, "model": model}).Debug("sql generation served from cache")
		return Generation{SQL: sql, Cached: true, Usage: EstimateUsage(s.Estimator, prompt, sql)}, nil
	}

	raw, err := s.Provider.Generate(ctx, Request{Model: model, Prompt: prompt, Options: SQLOptions})
	if err != nil {
		return Generation{}, err
	}
	sql := StripCodeFences(raw)

	if sql != "" {
		if err := s.Cache.Put(provider, model, prompt, sql); err != nil {
			s.logger().WithError(err).Warn("failed to write llm cache")
		}
	}
	return Generation{SQL: sql, Usage: EstimateUsage(s.Estimator, prompt, sql)}, nil
}

// Chat sends message with chatContext as the system prompt.
func (s *Service) Chat(ctx context.Context, message, chatContext, model string) (string, error) {
	return s.Provider.Generate(ctx, Request{
		Model:   model,
		System:  chatContext,
		Prompt:  message,
		Options: ChatOptions,
	})
}

// Models lists the provider's models and never fails; an unreachable host
// yields an empty list.
func (s *Service) Models(ctx context.Context) []Model {
	models, err := s.Provider.Models(ctx)
	if err != nil {
		s.logger().WithError(err).WithField("provider", s.Provider.Name()).Warn("failed to list models")
		return []Model{}
	}
	return models
}

func (s *Service) logger() log.FieldLogger {
	if s.Logger == nil {
		return log.StandardLogger()
	}
	return s.Logger
}
