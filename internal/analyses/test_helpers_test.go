package analyses

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"smartcs-backend/internal/llm"
)

// scriptedGateway answers each stage with a canned response or error and
// records every request it receives.
type scriptedGateway struct {
	mu        sync.Mutex
	calls     []llm.Request
	responses map[string]string
	errs      map[string]error
}

func (g *scriptedGateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := g.errs[req.Stage]; err != nil {
		return "", err
	}
	return g.responses[req.Stage], nil
}

func (g *scriptedGateway) stages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		out = append(out, c.Stage)
	}
	return out
}

func (g *scriptedGateway) call(stage string) (llm.Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.calls {
		if c.Stage == stage {
			return c, true
		}
	}
	return llm.Request{}, false
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func newTestService(gw llm.Gateway) *Service {
	return &Service{Gateway: gw, Now: func() time.Time { return fixedNow }}
}

const pngSignature = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(pngSignature))
}

// wheatRequest mirrors the form a field technician submits for a wheat plot.
func wheatRequest() AnalysisRequest {
	return AnalysisRequest{
		CropType:       "Wheat",
		NDVI:           "0.65",
		NDRE:           "0.4",
		RGBDamageScore: "12",
		PH:             "6.5",
		Moisture:       "30",
		Temperature:    "22",
		SoilType:       "Loamy",
		Nitrogen:       "40",
		Potassium:      "35",
	}
}

const cropJSON = `{
  "cropType": "Wheat",
  "disease": "Leaf Rust",
  "confidence": "85%",
  "urgency": "High",
  "ndvi": "0.65",
  "ndre": "0.4",
  "rgbDamageScore": "12",
  "symptoms": ["Orange pustules on leaves", "Yellowing {patchy} margins"],
  "treatment": ["Apply triazole fungicide"],
  "prevention": ["Plant resistant cultivars", "Rotate crops"]
}`

const soilJSON = `{
  "phStatus": "Slightly Acidic",
  "temperatureStatus": "Moderate",
  "moistureStatus": "Adequate",
  "soilHealth": "Good",
  "nutrients": {"nitrogen": "Moderate", "phosphorus": "Low", "potassium": "Moderate"},
  "suitableCrops": ["Wheat", "Barley", "Oats"],
  "recommendations": ["Add phosphorus fertilizer", "Maintain irrigation schedule"]
}`

const recommendationsJSON = `["Treat rust before irrigating", "Add phosphorus at tillering", "Scout weekly for spread"]`

func happyGateway() *scriptedGateway {
	return &scriptedGateway{responses: map[string]string{
		StageCrop:        cropJSON,
		StageSoil:        soilJSON,
		StageIntegration: recommendationsJSON,
	}}
}
