package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"smartcs-backend/internal/llm"
)

const (
	providerName   = "openai"
	defaultTimeout = 120 * time.Second
)

// Options configures the OpenAI gateway.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport; tests point it at httptest servers.
	HTTPClient *http.Client
}

// Client implements llm.Gateway using OpenAI Chat Completions.
type Client struct {
	api   oai.Client
	model string
}

// NewClient constructs a new OpenAI gateway. The SDK's automatic retries are
// disabled: each Complete is exactly one upstream request.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}

	return &Client{
		api:   oai.NewClient(reqOpts...),
		model: opts.Model,
	}, nil
}

// Complete sends one chat completion and returns the first choice's content unmodified.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	params := oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{userMessage(req)},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = oai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = oai.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.ResponseFormat = responseFormat(req.Schema)
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func userMessage(req llm.Request) oai.ChatCompletionMessageParamUnion {
	if req.Image == nil {
		return oai.UserMessage(req.Prompt)
	}
	parts := []oai.ChatCompletionContentPartUnionParam{
		oai.TextContentPart(req.Prompt),
		oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
			URL: req.Image.DataURL(),
		}),
	}
	return oai.UserMessage(parts)
}

func responseFormat(schema *llm.Schema) oai.ChatCompletionNewParamsResponseFormatUnion {
	param := oai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   schema.Name,
		Schema: schema.Definition,
		Strict: oai.Bool(true),
	}
	if schema.Description != "" {
		param.Description = oai.String(schema.Description)
	}
	return oai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &oai.ResponseFormatJSONSchemaParam{JSONSchema: param},
	}
}

func mapError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if strings.TrimSpace(body) == "" {
			body = apiErr.Message
		}
		return &llm.GatewayError{
			Provider: providerName,
			Status:   apiErr.StatusCode,
			Body:     body,
			Err:      err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("openai request timeout: %w", err)
	}
	return fmt.Errorf("openai request: %w", err)
}

var _ llm.Gateway = (*Client)(nil)
