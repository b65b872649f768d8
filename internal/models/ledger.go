package models

import "time"

// LedgerStatus represents the lifecycle of an employee certificate record.
type LedgerStatus string

// Possible ledger statuses. Only VALID counts as currently held.
const (
	LedgerStatusValid     LedgerStatus = "VALID"
	LedgerStatusExpired   LedgerStatus = "EXPIRED"
	LedgerStatusRevoked   LedgerStatus = "REVOKED"
	LedgerStatusSuspended LedgerStatus = "SUSPENDED"
)

// EmployeeLicense is one ledger entry: a license held (or formerly held)
// by an employee at an achieved level.
type EmployeeLicense struct {
	ID                string       `db:"id" json:"id"`
	EmployeeID        string       `db:"employee_id" json:"employee_id"`
	LicenseID         string       `db:"license_id" json:"license_id"`
	Status            LedgerStatus `db:"status" json:"status"`
	LevelAchieved     int          `db:"level_achieved" json:"level_achieved"`
	CanRenewFromLevel int          `db:"can_renew_from_level" json:"can_renew_from_level"`
	ExpiresAt         *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	AchievedAt        time.Time    `db:"achieved_at" json:"achieved_at"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// Held reports whether the entry counts as current possession.
func (e EmployeeLicense) Held() bool {
	return e.Status == LedgerStatusValid
}

// EffectiveLevel returns the achieved level treating an unset value as 1.
func (e EmployeeLicense) EffectiveLevel() int {
	if e.LevelAchieved < 1 {
		return 1
	}
	return e.LevelAchieved
}

// RenewalFloor returns the minimum level required to renew without
// retraining, defaulting to the achieved level when unset.
func (e EmployeeLicense) RenewalFloor() int {
	if e.CanRenewFromLevel < 1 {
		return e.EffectiveLevel()
	}
	return e.CanRenewFromLevel
}

// LedgerDetail enriches a ledger entry with license info for display.
type LedgerDetail struct {
	EmployeeLicense
	LicenseName     string `db:"license_name" json:"license_name"`
	LicenseCategory string `db:"license_category" json:"license_category"`
}
