package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"smartcs-backend/internal/extract"
	"smartcs-backend/internal/llm"
	"smartcs-backend/internal/shared/metrics"
	"smartcs-backend/internal/shared/telemetry"
)

// Service runs crop and soil analyses against a model gateway.
type Service struct {
	Gateway llm.Gateway
	// Parallel issues the crop and soil calls concurrently. The integration
	// call always waits for both.
	Parallel bool
	Now      func() time.Time
}

// NewService constructs a Service.
func NewService(gateway llm.Gateway, parallel bool) *Service {
	return &Service{Gateway: gateway, Parallel: parallel, Now: time.Now}
}

// AnalyzeCombined runs the crop, soil and integration stages and assembles the result.
// Crop and soil gateway failures are fatal. Integration failures and unparseable
// model output degrade to defaults.
func (s *Service) AnalyzeCombined(ctx context.Context, req AnalysisRequest) (CombinedAnalysis, error) {
	image, err := decodeOptionalImage(req.ImageBase64)
	if err != nil {
		return CombinedAnalysis{}, err
	}

	start := time.Now()
	metrics.IncAnalysisStarted()

	var (
		crop extract.Result[CropAnalysis]
		soil extract.Result[SoilAnalysis]
	)
	if s.Parallel {
		crop, soil, err = s.primaryConcurrent(ctx, req, image)
	} else {
		crop, soil, err = s.primarySequential(ctx, req, image)
	}
	if err != nil {
		metrics.IncAnalysisFailed()
		return CombinedAnalysis{}, err
	}

	recs := s.integrate(ctx, crop.Value, soil.Value)

	result := CombinedAnalysis{
		CropAnalysis:              crop.Value,
		SoilAnalysis:              soil.Value,
		IntegratedRecommendations: recs.Value,
		Timestamp:                 s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	result.Degraded = degradations(
		stageResult{StageCrop, crop.Degraded, crop.Reason},
		stageResult{StageSoil, soil.Degraded, soil.Reason},
		stageResult{StageIntegration, recs.Degraded, recs.Reason},
	)

	elapsed := time.Since(start)
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDuration(elapsed)
	telemetry.Info("analysis.complete", map[string]any{
		"crop_type":       req.CropType,
		"has_image":       image != nil,
		"degraded_stages": len(result.Degraded),
		"parallel":        s.Parallel,
		"duration_ms":     float64(elapsed.Microseconds()) / 1000.0,
	})
	return result, nil
}

func (s *Service) primarySequential(ctx context.Context, req AnalysisRequest, image *llm.InlineImage) (extract.Result[CropAnalysis], extract.Result[SoilAnalysis], error) {
	crop, err := s.analyzeCrop(ctx, req, image)
	if err != nil {
		return crop, extract.Result[SoilAnalysis]{}, err
	}
	soil, err := s.analyzeSoil(ctx, req)
	return crop, soil, err
}

// primaryConcurrent runs both primary stages and returns the first fatal error.
// A failure cancels the sibling call through the group context.
func (s *Service) primaryConcurrent(ctx context.Context, req AnalysisRequest, image *llm.InlineImage) (extract.Result[CropAnalysis], extract.Result[SoilAnalysis], error) {
	var (
		crop extract.Result[CropAnalysis]
		soil extract.Result[SoilAnalysis]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		crop, err = s.analyzeCrop(gctx, req, image)
		return err
	})
	g.Go(func() error {
		var err error
		soil, err = s.analyzeSoil(gctx, req)
		return err
	})
	err := g.Wait()
	return crop, soil, err
}

func (s *Service) analyzeCrop(ctx context.Context, req AnalysisRequest, image *llm.InlineImage) (extract.Result[CropAnalysis], error) {
	role := llm.RoleVision
	if image == nil {
		role = llm.RoleText
	}
	text, err := s.complete(ctx, llm.Request{
		Stage:     StageCrop,
		Role:      role,
		Prompt:    CropPrompt(req),
		Image:     image,
		MaxTokens: cropMaxTokens,
	})
	if err != nil {
		return extract.Result[CropAnalysis]{}, &StageError{Stage: StageCrop, Err: err}
	}
	return decodeStage(StageCrop, text, extract.ObjectMode, defaultCropAnalysis(req)), nil
}

func (s *Service) analyzeSoil(ctx context.Context, req AnalysisRequest) (extract.Result[SoilAnalysis], error) {
	text, err := s.complete(ctx, llm.Request{
		Stage:     StageSoil,
		Role:      llm.RoleText,
		Prompt:    SoilPrompt(req),
		MaxTokens: soilMaxTokens,
	})
	if err != nil {
		return extract.Result[SoilAnalysis]{}, &StageError{Stage: StageSoil, Err: err}
	}
	return decodeStage(StageSoil, text, extract.ObjectMode, defaultSoilAnalysis()), nil
}

// integrate never fails: a failed call yields an empty list, as does an empty
// completion. Unparseable output yields the default recommendations.
func (s *Service) integrate(ctx context.Context, crop CropAnalysis, soil SoilAnalysis) extract.Result[[]string] {
	prompt, err := IntegrationPrompt(crop, soil)
	if err == nil {
		var text string
		text, err = s.complete(ctx, llm.Request{
			Stage:     StageIntegration,
			Role:      llm.RoleText,
			Prompt:    prompt,
			MaxTokens: integrationMaxTokens,
		})
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return extract.Result[[]string]{Value: []string{}}
			}
			res := decodeStage(StageIntegration, text, extract.ArrayMode, Texts(defaultRecommendations()))
			recs := []string(res.Value)
			if recs == nil {
				recs = []string{}
			}
			return extract.Result[[]string]{Value: recs, Degraded: res.Degraded, Reason: res.Reason}
		}
	}

	metrics.IncStageDegraded(StageIntegration)
	telemetry.Warn("analysis.integration_failed", map[string]any{
		"stage":           StageIntegration,
		"error":           err,
		"upstream_status": upstreamStatus(err),
	})
	return extract.Result[[]string]{
		Value:    []string{},
		Degraded: true,
		Reason:   "integration call failed: " + err.Error(),
	}
}

// AnalyzePlant diagnoses a single crop image with schema-constrained output.
func (s *Service) AnalyzePlant(ctx context.Context, req PlantRequest) (PlantAnalysis, error) {
	image, err := decodeOptionalImage(req.ImageBase64)
	if err != nil {
		return PlantAnalysis{}, err
	}
	if image == nil {
		return PlantAnalysis{}, &ValidationError{Issues: []FieldIssue{{Field: "imageBase64", Issue: "required"}}}
	}
	text, err := s.complete(ctx, llm.Request{
		Stage:       StagePlant,
		Role:        llm.RoleVision,
		Prompt:      PlantPrompt(req),
		Image:       image,
		MaxTokens:   singleMaxTokens,
		Temperature: singleTemperature,
		Schema:      llm.SchemaFor[PlantAnalysis]("plant_analysis", "Plant disease diagnosis"),
	})
	if err != nil {
		return PlantAnalysis{}, &StageError{Stage: StagePlant, Err: err}
	}
	return decodeStrict[PlantAnalysis](StagePlant, text)
}

// AnalyzeSoil assesses soil measurements with schema-constrained output.
func (s *Service) AnalyzeSoil(ctx context.Context, req SoilRequest) (SoilAnalysis, error) {
	text, err := s.complete(ctx, llm.Request{
		Stage:       StageSoilOnly,
		Role:        llm.RoleText,
		Prompt:      SoilOnlyPrompt(req),
		MaxTokens:   singleMaxTokens,
		Temperature: singleTemperature,
		Schema:      llm.SchemaFor[SoilAnalysis]("soil_analysis", "Soil health assessment"),
	})
	if err != nil {
		return SoilAnalysis{}, &StageError{Stage: StageSoilOnly, Err: err}
	}
	return decodeStrict[SoilAnalysis](StageSoilOnly, text)
}

func (s *Service) complete(ctx context.Context, req llm.Request) (string, error) {
	if s.Gateway == nil {
		return "", llm.ErrNotConfigured
	}
	return s.Gateway.Complete(ctx, req)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func decodeStage[T any](stage, text string, mode extract.Mode, fallback T) extract.Result[T] {
	res := extract.Decode(text, mode, fallback)
	if res.Degraded {
		metrics.IncStageDegraded(stage)
		telemetry.Warn("analysis.parse_failed", map[string]any{
			"stage":           stage,
			"reason":          res.Reason,
			"response_length": len(text),
		})
	}
	return res
}

// decodeStrict parses schema-constrained output. Providers honour the schema, so
// anything that does not decode is a stage failure rather than a degradation.
func decodeStrict[T any](stage, text string) (T, error) {
	var zero T
	res := extract.Decode(text, extract.ObjectMode, zero)
	if res.Degraded {
		return zero, &StageError{Stage: stage, Err: errors.New(res.Reason)}
	}
	return res.Value, nil
}

func decodeOptionalImage(raw string) (*llm.InlineImage, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	image, err := llm.ParseInlineImage(raw)
	if err != nil {
		return nil, &ValidationError{Issues: []FieldIssue{{Field: "imageBase64", Issue: trimSentinel(err)}}}
	}
	return image, nil
}

func trimSentinel(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, llm.ErrInvalidImage.Error()+": "); ok {
		return rest
	}
	return msg
}

type stageResult struct {
	stage    string
	degraded bool
	reason   string
}

func degradations(results ...stageResult) []Degradation {
	var out []Degradation
	for _, r := range results {
		if r.degraded {
			out = append(out, Degradation{Stage: r.stage, Reason: r.reason})
		}
	}
	return out
}

func upstreamStatus(err error) int {
	var gwErr *llm.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status
	}
	return 0
}

// String renders a short summary for logs and the prompt preview tool.
func (a CombinedAnalysis) String() string {
	return fmt.Sprintf("crop=%s disease=%s urgency=%s soil=%s recommendations=%d degraded=%d",
		a.CropAnalysis.CropType, a.CropAnalysis.Disease, a.CropAnalysis.Urgency,
		a.SoilAnalysis.SoilHealth, len(a.IntegratedRecommendations), len(a.Degraded))
}
