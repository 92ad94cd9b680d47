package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"smartcs-backend/internal/llm"
)

const (
	providerName   = "gemini"
	defaultTimeout = 120 * time.Second
)

// Options configures the Gemini gateway.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Gateway using the Gemini API.
type Client struct {
	api   *genai.Client
	model string
}

// NewClient constructs a Gemini gateway. No request is made at construction time.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{api: client, model: opts.Model}, nil
}

// Complete generates content and returns the text of the first candidate.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.Schema.Definition
	}

	result, err := c.api.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", mapError(err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini response missing candidates")
	}

	candidate := result.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
	}
	return text.String(), nil
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		body := apiErr.Message
		if apiErr.Status != "" {
			body = apiErr.Status + ": " + body
		}
		return &llm.GatewayError{
			Provider: providerName,
			Status:   apiErr.Code,
			Body:     body,
			Err:      err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini request timeout: %w", err)
	}
	return fmt.Errorf("gemini request: %w", err)
}

var _ llm.Gateway = (*Client)(nil)
