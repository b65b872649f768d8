package dto

import (
	"time"

	"github.com/noventis/certtrack-api/internal/models"
)

// PreviewExemptionRequest carries the criteria to match against the population.
type PreviewExemptionRequest struct {
	Criteria models.ExemptionCriteria `json:"criteria"`
}

// ExecuteExemptionRequest is the payload for running a mass exemption.
type ExecuteExemptionRequest struct {
	Criteria      models.ExemptionCriteria `json:"criteria"`
	Type          models.ExemptionType     `json:"type" validate:"required"`
	Reason        string                   `json:"reason" validate:"required"`
	Justification string                   `json:"justification"`
	EffectiveAt   time.Time                `json:"effective_at"`
	ExpiresAt     *time.Time               `json:"expires_at,omitempty"`
	SaveTemplate  bool                     `json:"save_template"`
	TemplateName  string                   `json:"template_name"`
	TemplateID    string                   `json:"template_id"`
}

// OperationOutcome aggregates an executed operation with its counts.
type OperationOutcome struct {
	Operation    models.MassExemptionOperation `json:"operation"`
	SuccessCount int                           `json:"success_count"`
	ErrorCount   int                           `json:"error_count"`
	TotalCount   int                           `json:"total_count"`
}

// OperationDetail pairs an operation with its per-employee result rows.
type OperationDetail struct {
	Operation models.MassExemptionOperation `json:"operation"`
	Results   []models.MassExemptionResult  `json:"results"`
}

// SaveTemplateRequest creates or updates a reusable criteria bundle.
type SaveTemplateRequest struct {
	Name          string                   `json:"name" validate:"required"`
	Description   string                   `json:"description"`
	Criteria      models.ExemptionCriteria `json:"criteria"`
	Type          models.ExemptionType     `json:"type" validate:"required"`
	DefaultReason string                   `json:"default_reason"`
}

// SaveRuleRequest creates or updates an auto-exemption rule.
type SaveRuleRequest struct {
	Name               string                   `json:"name" validate:"required"`
	Criteria           models.ExemptionCriteria `json:"criteria"`
	Type               models.ExemptionType     `json:"type" validate:"required"`
	Reason             string                   `json:"reason" validate:"required"`
	EffectiveAfterDays int                      `json:"effective_after_days" validate:"min=0"`
	ExpiresAfterDays   *int                     `json:"expires_after_days,omitempty"`
	Enabled            bool                     `json:"enabled"`
}
