package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"mentor-rag/internal/config"
	"mentor-rag/internal/models"
)

// ErrLLM wraps provider failures so the HTTP layer can map them to 503
// without inspecting provider-specific error types.
var ErrLLM = errors.New("llm request failed")

// ErrNotConfigured is returned when no API key is set. This is a
// configuration error, not a transient one.
var ErrNotConfigured = errors.New("llm api key not configured")

type Service struct {
	llm llms.Model
	cfg *config.LLMConfig
}

// NewService builds the chat model for the configured provider.
func NewService(cfg *config.LLMConfig) (*Service, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or llm.key", ErrNotConfigured)
	}

	var llm llms.Model
	var err error
	switch cfg.Provider {
	case "anthropic":
		llm, err = anthropic.New(
			anthropic.WithToken(cfg.Key),
			anthropic.WithModel(cfg.Model),
		)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	log.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("LLM service initialized")
	return &Service{llm: llm, cfg: cfg}, nil
}

// GenerateResponse sends the system prompt, conversation history and
// current message to the model and returns the text of the reply.
func (s *Service) GenerateResponse(ctx context.Context, systemPrompt string, history []models.ChatMessage, message string) (string, error) {
	msgs := buildMessages(systemPrompt, history, message)

	resp, err := s.llm.GenerateContent(ctx, msgs,
		llms.WithMaxTokens(s.cfg.MaxTokens),
		llms.WithTemperature(s.cfg.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLM, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func buildMessages(systemPrompt string, history []models.ChatMessage, message string) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(history)+2)
	if systemPrompt != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, m.Content))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, message))
	return msgs
}
