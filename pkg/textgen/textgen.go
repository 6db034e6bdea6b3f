// Package textgen drafts blog post bodies through an OpenAI-compatible
// chat-completions API.
package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama3-70b-8192"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8000
	DefaultTimeout     = 60 * time.Second
)

var (
	ErrMissingInput  = errors.New("title and excerpt are required to generate content")
	ErrNotConfigured = errors.New("content generation is not configured")
)

var generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blog_content_generation_requests_total",
	Help: "Content generation requests by outcome",
}, []string{"outcome"})

// GenerationError reports a failed call to the upstream API.
// StatusCode is zero for transport failures and timeouts.
type GenerationError struct {
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("content generation failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("content generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Config holds the upstream API settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls the chat-completions endpoint. It holds no state between calls.
type Client struct {
	cfg Config
}

// NewClient creates a new Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate drafts an HTML post body for the given title and excerpt.
func (c *Client) Generate(ctx context.Context, title, excerpt string) (string, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(excerpt) == "" {
		return "", ErrMissingInput
	}
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", c.fail("canceled", &GenerationError{Err: err})
	}

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.cfg.BaseURL + "/chat/completions")
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cfg.APIKey)
	agent.JSON(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(title, excerpt)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", c.fail("transport", &GenerationError{Err: errors.Join(errs...)})
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return "", c.fail("status", &GenerationError{StatusCode: code, Err: fmt.Errorf("unexpected status %d", code)})
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", c.fail("decode", &GenerationError{StatusCode: code, Err: fmt.Errorf("decode response: %w", err)})
	}
	if len(resp.Choices) == 0 {
		return "", c.fail("empty", &GenerationError{StatusCode: code, Err: errors.New("response contained no choices")})
	}

	generationRequests.WithLabelValues("ok").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) fail(outcome string, err *GenerationError) error {
	generationRequests.WithLabelValues(outcome).Inc()
	return err
}
