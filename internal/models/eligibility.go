package models

// EligibilityReason explains an enrollment decision.
type EligibilityReason string

// Enrollment decision reasons.
const (
	ReasonNoLevelRequirement   EligibilityReason = "NO_LEVEL_REQUIREMENT"
	ReasonAlreadyQualified     EligibilityReason = "ALREADY_QUALIFIED"
	ReasonLevelSkipForbidden   EligibilityReason = "LEVEL_SKIP_FORBIDDEN"
	ReasonMissingPrerequisites EligibilityReason = "MISSING_PREREQUISITES"
	ReasonProgressionStep      EligibilityReason = "PROGRESSION_STEP"
)

// EnrollmentDecision is the outcome of evaluating course enrollment.
type EnrollmentDecision struct {
	Eligible             bool              `json:"eligible"`
	Reason               EligibilityReason `json:"reason"`
	CurrentLevel         int               `json:"current_level"`
	TargetLevel          int               `json:"target_level"`
	RecommendedLevel     int               `json:"recommended_level"`
	MissingPrerequisites []string          `json:"missing_prerequisites,omitempty"`
}

// RenewalDecision is the outcome of evaluating a certificate renewal.
type RenewalDecision struct {
	CanRenew       bool `json:"can_renew"`
	CurrentLevel   int  `json:"current_level"`
	RenewalFloor   int  `json:"renewal_floor"`
	NeedsRetrain   bool `json:"needs_retraining"`
	RetrainAtLevel int  `json:"retrain_at_level,omitempty"`
}
