package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/nutrimed/internal/apperr"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 1500
	DefaultTimeout   = 60 * time.Second

	maxErrorBody = 4 << 10
)

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAIClient is an Analyzer backed by any OpenAI-compatible
// /chat/completions endpoint that accepts image_url content parts.
type OpenAIClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	http      *http.Client
	logger    *slog.Logger
}

// NewOpenAIClient returns an OpenAIClient, or Unconfigured when cfg has no
// API key.
func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) Analyzer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Unconfigured{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
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
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// dataURL inlines the image so the request needs no separate upload.
func dataURL(mimeType string, image []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func (c *OpenAIClient) Analyze(ctx context.Context, req Request) (string, error) {
	if len(req.Image) == 0 {
		return "", ErrEmptyImage
	}

	body := chatRequest{
		Model: c.model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: BuildPrompt(req)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL(req.MIMEType, req.Image)}},
			},
		}},
		MaxTokens: c.maxTokens,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", apperr.Wrap(apperr.AnalyzerUnavailable, ErrUnavailable.Msg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WarnContext(ctx, "analyzer upstream error",
			"status", resp.StatusCode,
			"body", string(snippet),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", apperr.Wrap(apperr.AnalyzerUnavailable, ErrUnavailable.Msg,
			fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", apperr.Wrap(apperr.AnalyzerUnavailable, ErrUnavailable.Msg,
			fmt.Errorf("failed to decode response: %w", err))
	}
	if chatResp.Error != nil {
		return "", apperr.Wrap(apperr.AnalyzerUnavailable, ErrUnavailable.Msg,
			fmt.Errorf("upstream error: %s", chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", apperr.Wrap(apperr.AnalyzerUnavailable, ErrUnavailable.Msg,
			fmt.Errorf("empty choices from upstream"))
	}

	c.logger.DebugContext(ctx, "analyzer call finished",
		"model", c.model,
		"image_bytes", len(req.Image),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chatResp.Choices[0].Message.Content, nil
}
