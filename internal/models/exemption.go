package models

import "time"

// ExemptionType classifies a granted waiver.
type ExemptionType string

// Supported exemption types.
const (
	ExemptionPermanent   ExemptionType = "PERMANENT"
	ExemptionTemporary   ExemptionType = "TEMPORARY"
	ExemptionConditional ExemptionType = "CONDITIONAL"
)

// ExemptionStatus reflects the approval lifecycle of a grant.
type ExemptionStatus string

// Possible exemption statuses.
const (
	ExemptionStatusApproved ExemptionStatus = "APPROVED"
	ExemptionStatusRevoked  ExemptionStatus = "REVOKED"
)

// Exemption is an approved waiver excusing an employee from holding or
// renewing a license.
type Exemption struct {
	ID            string          `db:"id" json:"id"`
	EmployeeID    string          `db:"employee_id" json:"employee_id"`
	LicenseID     string          `db:"license_id" json:"license_id"`
	Type          ExemptionType   `db:"type" json:"type"`
	Status        ExemptionStatus `db:"status" json:"status"`
	Reason        string          `db:"reason" json:"reason"`
	Justification string          `db:"justification" json:"justification,omitempty"`
	EffectiveAt   time.Time       `db:"effective_at" json:"effective_at"`
	ExpiresAt     *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	GrantedBy     string          `db:"granted_by" json:"granted_by"`
	OperationID   *string         `db:"operation_id" json:"operation_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ActiveAt reports whether the exemption is approved, effective and
// unexpired at the given instant.
func (e Exemption) ActiveAt(now time.Time) bool {
	if e.Status != ExemptionStatusApproved {
		return false
	}
	if e.EffectiveAt.After(now) {
		return false
	}
	if e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
		return false
	}
	return true
}

// ExemptionCriteria filters the employee population. All set fields are
// combined conjunctively.
type ExemptionCriteria struct {
	LicenseID          string         `json:"license_id"`
	Departments        []string       `json:"departments,omitempty"`
	ContractTypes      []ContractType `json:"contract_types,omitempty"`
	LocationIDs        []string       `json:"location_ids,omitempty"`
	HiredFrom          *time.Time     `json:"hired_from,omitempty"`
	HiredTo            *time.Time     `json:"hired_to,omitempty"`
	MinServiceYears    *float64       `json:"min_service_years,omitempty"`
	MaxServiceYears    *float64       `json:"max_service_years,omitempty"`
	ExcludeExistingFor bool           `json:"exclude_existing_exemptions,omitempty"`
}

// Empty reports whether no discriminating field is set. An empty criteria
// matches nobody: the evaluator refuses to run it.
func (c ExemptionCriteria) Empty() bool {
	return len(c.Departments) == 0 &&
		len(c.ContractTypes) == 0 &&
		len(c.LocationIDs) == 0 &&
		c.HiredFrom == nil &&
		c.HiredTo == nil &&
		c.MinServiceYears == nil &&
		c.MaxServiceYears == nil
}

// OperationStatus reflects the terminal state of a mass exemption run.
type OperationStatus string

// Possible operation statuses.
const (
	OperationStatusRunning   OperationStatus = "RUNNING"
	OperationStatusCompleted OperationStatus = "COMPLETED"
	OperationStatusPartial   OperationStatus = "PARTIAL"
	OperationStatusCancelled OperationStatus = "CANCELLED"
)

// MassExemptionOperation is the immutable audit record of one execution
// of a criteria set against the population.
type MassExemptionOperation struct {
	ID                string          `db:"id" json:"id"`
	LicenseID         string          `db:"license_id" json:"license_id"`
	CriteriaSnapshot  []byte          `db:"criteria_snapshot" json:"criteria_snapshot"`
	Type              ExemptionType   `db:"type" json:"type"`
	Reason            string          `db:"reason" json:"reason"`
	Justification     string          `db:"justification" json:"justification,omitempty"`
	EffectiveAt       time.Time       `db:"effective_at" json:"effective_at"`
	ExpiresAt         *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	EmployeesAffected int             `db:"employees_affected" json:"employees_affected"`
	SuccessCount      int             `db:"success_count" json:"success_count"`
	ErrorCount        int             `db:"error_count" json:"error_count"`
	Status            OperationStatus `db:"status" json:"status"`
	ExecutedBy        string          `db:"executed_by" json:"executed_by"`
	ExecutedAt        time.Time       `db:"executed_at" json:"executed_at"`
}

// MassExemptionResult is one per-employee outcome row of an operation.
type MassExemptionResult struct {
	ID           string    `db:"id" json:"id"`
	OperationID  string    `db:"operation_id" json:"operation_id"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	EmployeeName string    `db:"employee_name" json:"employee_name"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	ExemptionID  *string   `db:"exemption_id" json:"exemption_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExemptionTemplate is a saved, reusable criteria+defaults bundle.
type ExemptionTemplate struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Description   string        `db:"description" json:"description,omitempty"`
	LicenseID     string        `db:"license_id" json:"license_id"`
	Criteria      []byte        `db:"criteria" json:"criteria"`
	Type          ExemptionType `db:"type" json:"type"`
	DefaultReason string        `db:"default_reason" json:"default_reason,omitempty"`
	UsageCount    int           `db:"usage_count" json:"usage_count"`
	CreatedBy     string        `db:"created_by" json:"created_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// AutoExemptionRule is a named criteria+defaults bundle intended for
// scheduled re-application by an external trigger.
type AutoExemptionRule struct {
	ID                 string        `db:"id" json:"id"`
	Name               string        `db:"name" json:"name"`
	LicenseID          string        `db:"license_id" json:"license_id"`
	Criteria           []byte        `db:"criteria" json:"criteria"`
	Type               ExemptionType `db:"type" json:"type"`
	Reason             string        `db:"reason" json:"reason"`
	EffectiveAfterDays int           `db:"effective_after_days" json:"effective_after_days"`
	ExpiresAfterDays   *int          `db:"expires_after_days" json:"expires_after_days,omitempty"`
	Enabled            bool          `db:"enabled" json:"enabled"`
	CreatedBy          string        `db:"created_by" json:"created_by"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}
