package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noventis/certtrack-api/internal/models"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
)

type ledgerRepository interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]models.EmployeeLicense, error)
	ListDetailForEmployee(ctx context.Context, employeeID string) ([]models.LedgerDetail, error)
	FindByID(ctx context.Context, id string) (*models.EmployeeLicense, error)
	Create(ctx context.Context, entry *models.EmployeeLicense) error
	UpdateLevels(ctx context.Context, id string, levelAchieved, canRenewFromLevel int) error
	UpdateStatus(ctx context.Context, id string, status models.LedgerStatus) error
}

// CreateLedgerEntryRequest records an approved training completion or
// document verification.
type CreateLedgerEntryRequest struct {
	EmployeeID        string     `json:"employee_id" validate:"required"`
	LicenseID         string     `json:"license_id" validate:"required"`
	LevelAchieved     int        `json:"level_achieved" validate:"omitempty,min=1"`
	CanRenewFromLevel int        `json:"can_renew_from_level" validate:"omitempty,min=1"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	AchievedAt        time.Time  `json:"achieved_at"`
}

// ReassessLedgerEntryRequest updates a record after level re-assessment.
type ReassessLedgerEntryRequest struct {
	LevelAchieved     int `json:"level_achieved" validate:"required,min=1"`
	CanRenewFromLevel int `json:"can_renew_from_level" validate:"required,min=1"`
}

// UpdateLedgerStatusRequest moves a record to a new lifecycle status.
type UpdateLedgerStatusRequest struct {
	Status models.LedgerStatus `json:"status" validate:"required"`
}

// LedgerService manages employee certificate records. Records are never
// deleted: new achievements supersede and status changes retire.
type LedgerService struct {
	ledger    ledgerRepository
	catalog   *CatalogService
	employees employeeSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLedgerService constructs the ledger service.
func NewLedgerService(ledger ledgerRepository, catalog *CatalogService, employees employeeSource, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{ledger: ledger, catalog: catalog, employees: employees, validator: validate, logger: logger}
}

// ListForEmployee returns the employee's certificate records with license context.
func (s *LedgerService) ListForEmployee(ctx context.Context, employeeID string) ([]models.LedgerDetail, error) {
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	entries, err := s.ledger.ListDetailForEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificate records")
	}
	return entries, nil
}

// Get returns one certificate record.
func (s *LedgerService) Get(ctx context.Context, id string) (*models.EmployeeLicense, error) {
	entry, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate record")
	}
	return entry, nil
}

// Create records a new achievement for an employee.
func (s *LedgerService) Create(ctx context.Context, req CreateLedgerEntryRequest) (*models.EmployeeLicense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate record payload")
	}
	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if _, err := s.catalog.Get(ctx, req.LicenseID); err != nil {
		return nil, err
	}

	entry := &models.EmployeeLicense{
		EmployeeID:        req.EmployeeID,
		LicenseID:         req.LicenseID,
		LevelAchieved:     req.LevelAchieved,
		CanRenewFromLevel: req.CanRenewFromLevel,
		ExpiresAt:         req.ExpiresAt,
		AchievedAt:        req.AchievedAt,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate record")
	}
	return entry, nil
}

// Reassess updates the achieved level and renewal floor of a record. The
// renewal floor may exceed the achieved level; renewal is then blocked
// until retraining.
func (s *LedgerService) Reassess(ctx context.Context, id string, req ReassessLedgerEntryRequest) (*models.EmployeeLicense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassessment payload")
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.UpdateLevels(ctx, id, req.LevelAchieved, req.CanRenewFromLevel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassess certificate record")
	}
	entry.LevelAchieved = req.LevelAchieved
	entry.CanRenewFromLevel = req.CanRenewFromLevel
	return entry, nil
}

// UpdateStatus moves a record to a new lifecycle status.
func (s *LedgerService) UpdateStatus(ctx context.Context, id string, req UpdateLedgerStatusRequest) (*models.EmployeeLicense, error) {
	switch req.Status {
	case models.LedgerStatusValid, models.LedgerStatusExpired, models.LedgerStatusRevoked, models.LedgerStatusSuspended:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown certificate status")
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update certificate status")
	}
	entry.Status = req.Status
	return entry, nil
}
