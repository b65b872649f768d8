package models

import "time"

// ContractType enumerates employment contract categories.
type ContractType string

const (
	ContractPermanent ContractType = "PERMANENT"
	ContractFixedTerm ContractType = "FIXED_TERM"
	ContractAgency    ContractType = "AGENCY"
)

// Employee represents a member of the workforce population.
type Employee struct {
	ID           string       `db:"id" json:"id"`
	FullName     string       `db:"full_name" json:"full_name"`
	Department   string       `db:"department" json:"department"`
	ContractType ContractType `db:"contract_type" json:"contract_type"`
	LocationID   string       `db:"location_id" json:"location_id"`
	JobTitle     string       `db:"job_title" json:"job_title"`
	HiredAt      time.Time    `db:"hired_at" json:"hired_at"`
	Active       bool         `db:"active" json:"active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// EmployeeSummary carries enough denormalized context for preview and
// result views without a second lookup.
type EmployeeSummary struct {
	ID           string       `db:"id" json:"id"`
	FullName     string       `db:"full_name" json:"full_name"`
	Department   string       `db:"department" json:"department"`
	ContractType ContractType `db:"contract_type" json:"contract_type"`
	LocationID   string       `db:"location_id" json:"location_id"`
	JobTitle     string       `db:"job_title" json:"job_title"`
	HiredAt      time.Time    `db:"hired_at" json:"hired_at"`
	ServiceYears float64      `db:"service_years" json:"service_years"`
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	Department   string
	ContractType ContractType
	LocationID   string
	Search       string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
