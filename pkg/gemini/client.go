package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config holds settings for the Gemini client.
type Config struct {
	APIKey  string        `yaml:"api_key" json:"-"`
	Model   string        `yaml:"model" json:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// BaseURL overrides the Gemini API endpoint; empty uses the default.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// Client generates text with a Gemini model. Every call is a single attempt.
type Client struct {
	client *genai.Client
	cfg    Config
}

// package-level logger for pkg/gemini; can be replaced by callers
var logger = zap.NewNop()

// SetLogger sets the logger used by pkg/gemini. Passing nil is a no-op.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// NewClient creates a Gemini client. httpClient may be nil.
func NewClient(ctx context.Context, cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	logger.Info("gemini: client created", zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))
	return &Client{client: client, cfg: cfg}, nil
}

// Classify sends prompt to the configured model and returns the response
// text as produced, without any post-processing.
func (c *Client) Classify(ctx context.Context, prompt string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

func (c *Client) Model() string { return c.cfg.Model }
