package dto

// EvaluateEnrollmentRequest asks whether an employee may enroll in a
// course targeting a license level.
type EvaluateEnrollmentRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required"`
	LicenseID   string `json:"license_id" validate:"required"`
	TargetLevel int    `json:"target_level" validate:"required,min=1"`
}

// EvaluateRenewalRequest asks whether a ledger entry can be renewed at
// its current level.
type EvaluateRenewalRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	LicenseID  string `json:"license_id" validate:"required"`
}

// TrainingLevelsResponse lists the levels an employee may train at.
type TrainingLevelsResponse struct {
	EmployeeID      string `json:"employee_id"`
	LicenseID       string `json:"license_id"`
	SuggestedLevel  int    `json:"suggested_level"`
	AvailableLevels []int  `json:"available_levels"`
}
