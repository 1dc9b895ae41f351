// Package openai adapts the OpenAI chat completions API to chat.Completer.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chat"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Completer calls the chat completions endpoint. Calls are not retried.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewCompleter(cfg Config) (*Completer, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfig, cfg.APIKeyEnv)
	}
	return newCompleter(cfg, key), nil
}

func newCompleter(cfg Config, key string) *Completer {
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	return &Completer{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *Completer) Complete(ctx context.Context, req chat.CompletionRequest) (chat.Completion, error) {
	creq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(req.Messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, t := range req.Tools {
		creq.Tools = append(creq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return chat.Completion{}, fmt.Errorf("%s (status %d)", apiErr.Message, apiErr.HTTPStatusCode)
		}
		return chat.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return chat.Completion{}, errors.New("empty completion")
	}

	msg := resp.Choices[0].Message
	out := chat.Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toMessages(in []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(in))
	for i, m := range in {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out[i] = msg
	}
	return out
}
