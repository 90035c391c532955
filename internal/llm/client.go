// ABOUTME: Provider client for chat completions and model availability probing
// ABOUTME: Wraps go-openai with retry logic; works with OpenAI-compatible endpoints
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harper/modelbridge/internal/models"
	"github.com/harper/modelbridge/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig holds configuration for the provider client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string // empty means the provider's default endpoint
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client wraps the provider API with retry logic. It implements the
// coordinator's ModelCaller and supplies the routing availability probe.
type Client struct {
	client     *openai.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration

	// model listing fetched once per process; routing must not hit the
	// listing endpoint on every turn
	listOnce sync.Once
	known    map[string]bool
}

// NewClient creates a provider client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key is required")
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		client:     openai.NewClientWithConfig(apiCfg),
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Call sends the prompt to the given model with the thread's prior turns
// replayed as alternating user/assistant messages, so the model sees the
// exact context it saw earlier in the thread.
func (c *Client) Call(ctx context.Context, model string, history []models.Turn, input string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)*2+1)
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: turn.Input,
		})
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: turn.Output,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.Backoff(c.retryDelay, attempt)); err != nil {
				return "", err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
		})
		cancel()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("model %s returned no choices", model)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("model call to %s failed after %d attempts: %w", model, c.maxRetries+1, lastErr)
}

// Probe reports whether a fully qualified model identifier is usable,
// checked against the provider's model listing. When the listing endpoint
// itself is unavailable the probe accepts the identifier and lets the
// actual call be the arbiter.
func (c *Client) Probe(ctx context.Context, model string) bool {
	c.listOnce.Do(func() {
		listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		list, err := c.client.ListModels(listCtx)
		if err != nil {
			return
		}
		c.known = make(map[string]bool, len(list.Models))
		for _, m := range list.Models {
			c.known[m.ID] = true
		}
	})
	if c.known == nil {
		return true
	}
	return c.known[model]
}
