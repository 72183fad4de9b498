// Package llm wraps the chat-model service behind a strict-JSON request
// contract. Every caller sends one instruction and must receive one valid
// JSON document; anything else is a parse failure the caller maps to its own
// fallback value. There is deliberately no retry loop against the model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"localradar/internal/config"
)

// ChatModel is the narrow slice of the eino chat model the client needs.
// Tests substitute a fake.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client is a process-wide, rate-limited handle on the chat model. It is
// constructed once at startup and shared by every AI stage.
type Client struct {
	cm      ChatModel
	limiter *rate.Limiter
}

// NewClient connects to the configured OpenAI-compatible endpoint.
func NewClient(ctx context.Context, cfg config.LLMConfig, conc config.ConcurrencyConfig) (*Client, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("llm init: %w", err)
	}
	return NewClientWithModel(cm, conc), nil
}

// NewClientWithModel wraps an existing chat model; used by tests.
func NewClientWithModel(cm ChatModel, conc config.ConcurrencyConfig) *Client {
	rpm := conc.RPM
	if rpm <= 0 {
		rpm = 30
	}
	burst := conc.QPS
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cm:      cm,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

// GenerateJSON sends one system+user instruction pair and unmarshals the reply
// into out. Markdown code fences around the JSON are tolerated; any other
// deviation is an error. The call is single-shot: a malformed reply is a
// terminal outcome for this request, never retried.
func (c *Client) GenerateJSON(ctx context.Context, system, prompt string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: prompt},
	}

	resp, err := c.cm.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("llm generate: %w", err)
	}

	clean := TrimFences(resp.Content)
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("llm json unmarshal: %w", err)
	}
	return nil
}

// TrimFences strips a surrounding markdown code fence, if any.
func TrimFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
