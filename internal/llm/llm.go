package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role selects the kind of completion a gateway call performs.
type Role string

const (
	RoleVision Role = "vision+text"
	RoleText   Role = "text-only"
)

// Gateway sends one prompt to a generative model and returns its raw text completion.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single prompt-completion call.
type Request struct {
	// Stage names the pipeline step issuing the call; used for logs and metrics only.
	Stage     string
	Role      Role
	Prompt    string
	Image     *InlineImage
	MaxTokens int
	// Temperature is the sampling temperature; zero leaves the provider default.
	Temperature float64
	// Schema, when set, asks the provider for schema-constrained JSON output.
	Schema *Schema
}

var (
	// ErrNotConfigured is returned when no provider credential is available.
	ErrNotConfigured = errors.New("model gateway not configured")
	// ErrEmptyPrompt is returned for requests without prompt text.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrInvalidImage is returned when an inline image cannot be decoded.
	ErrInvalidImage = errors.New("invalid inline image")
)

// Validate checks request invariants before any network call.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.Image != nil && (len(r.Image.Data) == 0 || !strings.HasPrefix(r.Image.MIMEType, "image/")) {
		return ErrInvalidImage
	}
	return nil
}

// GatewayError reports a non-success response from the upstream model endpoint.
type GatewayError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *GatewayError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Status, body)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Unconfigured is a Gateway used when the provider credential is missing.
// Every call fails with ErrNotConfigured without touching the network.
type Unconfigured struct {
	Provider string
}

// Complete returns ErrNotConfigured.
func (u Unconfigured) Complete(context.Context, Request) (string, error) {
	if u.Provider == "" {
		return "", ErrNotConfigured
	}
	return "", fmt.Errorf("%s: %w", u.Provider, ErrNotConfigured)
}
