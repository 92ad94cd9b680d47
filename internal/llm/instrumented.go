package llm

import (
	"context"
	"errors"
	"time"

	"smartcs-backend/internal/shared/metrics"
	"smartcs-backend/internal/shared/telemetry"
	"smartcs-backend/internal/shared/util"
)

type instrumented struct {
	base     Gateway
	provider string
	model    string
}

// Instrument wraps a gateway so every call is logged and measured.
func Instrument(base Gateway, provider, model string) Gateway {
	if base == nil {
		return nil
	}
	return instrumented{base: base, provider: provider, model: model}
}

func (g instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := g.base.Complete(ctx, req)
	elapsed := time.Since(start)
	metrics.ObserveGatewayDuration(elapsed)

	fields := map[string]any{
		"provider":      g.provider,
		"model":         g.model,
		"stage":         req.Stage,
		"role":          string(req.Role),
		"has_image":     req.Image != nil,
		"structured":    req.Schema != nil,
		"prompt_length": len(req.Prompt),
		"duration_ms":   float64(elapsed.Microseconds()) / 1000.0,
	}
	if req.Image != nil {
		fields["image_sha"] = util.Fingerprint(req.Image.Data)
		fields["image_bytes"] = len(req.Image.Data)
	}
	if err != nil {
		metrics.IncGatewayCall(req.Stage, "error")
		fields["error"] = err
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			fields["upstream_status"] = gwErr.Status
		}
		telemetry.Error("llm.call_failed", fields)
		return "", err
	}

	metrics.IncGatewayCall(req.Stage, "ok")
	fields["response_length"] = len(text)
	telemetry.Info("llm.call", fields)
	return text, nil
}
