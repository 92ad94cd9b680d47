package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "help", h.Snapshot())
	out := buf.String()

	for _, want := range []string{
		`x_bucket{le="10"} 1`,
		`x_bucket{le="100"} 2`,
		`x_bucket{le="+Inf"} 3`,
		`x_sum 555`,
		`x_count 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHandlerRendersLabelledCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncGatewayCall("crop", "ok")
	IncStageDegraded("integration")
	ObserveGatewayDuration(150 * time.Millisecond)

	r := gin.New()
	r.GET("/metrics", Handler())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `gateway_calls_total{stage="crop",outcome="ok"}`) {
		t.Fatalf("missing gateway counter:\n%s", body)
	}
	if !strings.Contains(body, `stage_degraded_total{stage="integration"}`) {
		t.Fatalf("missing degraded counter:\n%s", body)
	}
	if !strings.Contains(body, "gateway_duration_ms_count") {
		t.Fatalf("missing gateway histogram:\n%s", body)
	}
}

func TestFormatFloatHasNoTrailingDot(t *testing.T) {
	tests := map[float64]string{
		12:      "12",
		12.0004: "12.0004",
		0.25:    "0.25",
		2500:    "2500",
	}
	for in, want := range tests {
		if got := formatFloat(in); got != want {
			t.Fatalf("formatFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
