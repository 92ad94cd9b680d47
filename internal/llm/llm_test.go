package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "ok", req: Request{Prompt: "hi"}},
		{name: "blank prompt", req: Request{Prompt: " \n"}, want: ErrEmptyPrompt},
		{name: "empty image", req: Request{Prompt: "hi", Image: &InlineImage{MIMEType: "image/png"}}, want: ErrInvalidImage},
		{name: "non image", req: Request{Prompt: "hi", Image: &InlineImage{MIMEType: "text/plain", Data: []byte("x")}}, want: ErrInvalidImage},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGatewayErrorMessage(t *testing.T) {
	cause := errors.New("cause")
	err := &GatewayError{Provider: "openai", Status: 503, Body: strings.Repeat("x", 600), Err: cause}
	msg := err.Error()
	if !strings.HasPrefix(msg, "openai http status 503: ") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Fatalf("expected truncated body, got %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestUnconfiguredFailsWithoutNetwork(t *testing.T) {
	_, err := Unconfigured{Provider: "openai"}.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
