package analyses

import (
	"fmt"
	"strings"
)

// Pipeline stages, used as log and metric labels.
const (
	StageCrop        = "crop"
	StageSoil        = "soil"
	StageIntegration = "integration"
	StagePlant       = "plant"
	StageSoilOnly    = "soil_only"
)

const (
	ErrorCodeValidation      = "validation_error"
	ErrorCodeInvalidBody     = "invalid_body"
	ErrorCodePayloadTooLarge = "payload_too_large"
	ErrorCodeNotConfigured   = "not_configured"
	ErrorCodeAnalysisFailed  = "analysis_failed"
)

// StageError reports a fatal failure of one pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Message is the caller-facing description of the failure.
func (e *StageError) Message() string {
	switch e.Stage {
	case StageCrop:
		return "Failed to analyze crop image"
	case StagePlant:
		return "Failed to analyze plant image"
	case StageSoil, StageSoilOnly:
		return "Failed to analyze soil data"
	default:
		return "Failed to analyze crop and soil data"
	}
}

// FieldIssue describes one invalid request field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError reports a request that must not reach the model.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Issue)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
