package analyses

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"smartcs-backend/internal/llm"
	"smartcs-backend/internal/shared/server/middleware"
	"smartcs-backend/internal/shared/server/respond"
	"smartcs-backend/internal/shared/telemetry"
)

// Analyzer is the behaviour the HTTP layer needs from the service.
type Analyzer interface {
	AnalyzeCombined(ctx context.Context, req AnalysisRequest) (CombinedAnalysis, error)
	AnalyzePlant(ctx context.Context, req PlantRequest) (PlantAnalysis, error)
	AnalyzeSoil(ctx context.Context, req SoilRequest) (SoilAnalysis, error)
}

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc Analyzer
}

// NewHandler constructs a Handler.
func NewHandler(svc Analyzer) *Handler {
	RegisterValidators()
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-combined", h.analyzeCombined)
	rg.POST("/analyze-plant", h.analyzePlant)
	rg.POST("/analyze-soil", h.analyzeSoil)
}

func (h *Handler) analyzeCombined(c *gin.Context) {
	var req AnalysisRequest
	if !bind(c, &req) {
		return
	}
	c.Set(middleware.CropTypeKey, req.CropType)

	result, err := h.Svc.AnalyzeCombined(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to analyze crop and soil data")
		return
	}
	if len(result.Degraded) > 0 {
		c.Set(middleware.DegradedKey, len(result.Degraded))
	}
	respond.OK(c, result)
}

func (h *Handler) analyzePlant(c *gin.Context) {
	var req PlantRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.Svc.AnalyzePlant(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to analyze plant image")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) analyzeSoil(c *gin.Context) {
	var req SoilRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.Svc.AnalyzeSoil(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to analyze soil data")
		return
	}
	respond.OK(c, result)
}

// bind decodes and validates the JSON body, writing a 400 on failure.
func bind(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		verr := newValidationError(fieldErrs)
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, verr.Error(), verr.Issues)
		return false
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "request body too large", nil)
		return false
	}
	respond.Error(c, http.StatusBadRequest, ErrorCodeInvalidBody, "request body must be valid JSON", nil)
	return false
}

func writeError(c *gin.Context, err error, fallbackMessage string) {
	var (
		verr     *ValidationError
		stageErr *StageError
	)
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, verr.Error(), verr.Issues)
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusInternalServerError, ErrorCodeNotConfigured, llm.ErrNotConfigured.Error(), nil)
	case errors.As(err, &stageErr):
		telemetry.Error("analysis.stage_failed", map[string]any{
			"request_id":      middleware.RequestIDFromContext(c),
			"crop_type":       c.GetString(middleware.CropTypeKey),
			"stage":           stageErr.Stage,
			"upstream_status": upstreamStatus(err),
			"error":           err,
		})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeAnalysisFailed, stageErr.Message(), nil)
	default:
		telemetry.Error("analysis.error", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeAnalysisFailed, fallbackMessage, nil)
	}
}
