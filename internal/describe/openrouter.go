// Package describe writes product copy from a product photo through the
// OpenRouter chat-completions API.
package describe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/errs"
)

// Defaults for the OpenRouter client.
const (
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel    = "nvidia/nemotron-nano-12b-v2-vl:free"
	DefaultTimeout  = 30 * time.Second
	maxTokens       = 300
	temperature     = 0.7
	referer         = "https://mohana-textiles.com"
	appTitle        = "Mohana Textiles"
)

// Error is a generation failure carrying a message fit to show an admin.
// It matches errs.ErrUpstreamUnavailable.
type Error struct{ Message string }

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return errs.ErrUpstreamUnavailable }

func failf(format string, args ...any) error { return &Error{Message: fmt.Sprintf(format, args...)} }

// Fallback is the description used when generation is unavailable.
func Fallback(category, name string) string {
	return fmt.Sprintf("High-quality %s - %s", category, name)
}

// Client calls OpenRouter. A Client without an API key fails every call fast.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the chat-completions URL.
func WithEndpoint(u string) Option { return func(c *Client) { c.endpoint = u } }

// WithModel overrides the model id. Empty keeps DefaultModel.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithTimeout bounds a single call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New constructs a Client.
func New(apiKey string, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		apiKey:   apiKey,
		model:    DefaultModel,
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

func imagePrompt(name, category string) string {
	return fmt.Sprintf(`You are an expert fashion copywriter for a premium textile e-commerce store.

Product: %s
Category: %s

Carefully analyze the image and create an ATTRACTIVE, COMPELLING product description that:

1. Opens with an eye-catching statement about the product's most striking visual feature
2. Describes the fabric texture, quality, and feel (infer from visual appearance)
3. Highlights the color palette, patterns, prints, or embellishments you see
4. Mentions the design style (formal, casual, traditional, modern, etc.)
5. Suggests occasions or styling ideas based on the look
6. Ends with a persuasive call-to-action feeling

Write in an engaging, emotive tone that makes customers want to buy. Use sensory words and fashion terminology.
Length: 120-180 words.

IMPORTANT: Base your description ONLY on what you actually see in the image. Be specific and descriptive about visible details like patterns, colors, textures, cuts, and style elements.`, name, category)
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate describes the product shown in image. mimeType defaults to image/jpeg.
// Every failure is an *Error; the caller decides whether to fall back.
func (c *Client) Generate(ctx context.Context, image []byte, mimeType, productName, category string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	return c.complete(ctx, message{Role: "user", Content: []contentPart{
		{Type: "text", Text: imagePrompt(productName, category)},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
	}})
}

func (c *Client) complete(ctx context.Context, msg message) (string, error) {
	if !c.Configured() {
		return "", failf("OpenRouter API key not configured")
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []message{msg},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", failf("LLM generation failed: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", failf("LLM generation failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", referer)
	req.Header.Set("X-Title", appTitle)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("openrouter request failed", zap.Error(err))
		return "", failf("LLM generation failed: %v", err)
	}
	defer resp.Body.Close()
	c.log.Debug("openrouter response", zap.Int("status", resp.StatusCode), zap.Duration("dur", time.Since(start)))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", failf("Rate limit exceeded. Please wait a few minutes or add credits to your OpenRouter account.")
	case http.StatusUnauthorized:
		return "", failf("Invalid API key. Please check your OPENROUTER_API_KEY setting.")
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", failf("OpenRouter API error: %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", failf("LLM generation failed: %v", err)
	}
	if len(out.Choices) == 0 {
		return "", failf("LLM generation failed: empty response")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", failf("LLM generation failed: empty response")
	}
	return text, nil
}
