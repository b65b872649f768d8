package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noventis/certtrack-api/internal/models"
)

const ledgerColumns = "id, employee_id, license_id, status, level_achieved, can_renew_from_level, expires_at, achieved_at, created_at, updated_at"

// LedgerRepository handles persistence of employee certificate records.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ListForEmployee returns all ledger entries for one employee.
func (r *LedgerRepository) ListForEmployee(ctx context.Context, employeeID string) ([]models.EmployeeLicense, error) {
	query := fmt.Sprintf("SELECT %s FROM employee_licenses WHERE employee_id = $1 ORDER BY achieved_at DESC", ledgerColumns)
	var entries []models.EmployeeLicense
	if err := r.db.SelectContext(ctx, &entries, query, employeeID); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// ListDetailForEmployee returns ledger entries joined with license context.
func (r *LedgerRepository) ListDetailForEmployee(ctx context.Context, employeeID string) ([]models.LedgerDetail, error) {
	const query = `SELECT el.id, el.employee_id, el.license_id, el.status, el.level_achieved, el.can_renew_from_level, el.expires_at, el.achieved_at, el.created_at, el.updated_at,
        l.name AS license_name, l.category AS license_category
        FROM employee_licenses el
        LEFT JOIN licenses l ON l.id = el.license_id
        WHERE el.employee_id = $1
        ORDER BY el.achieved_at DESC`
	var entries []models.LedgerDetail
	if err := r.db.SelectContext(ctx, &entries, query, employeeID); err != nil {
		return nil, fmt.Errorf("list ledger detail: %w", err)
	}
	return entries, nil
}

// FindByID returns a ledger entry by identifier.
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*models.EmployeeLicense, error) {
	query := fmt.Sprintf("SELECT %s FROM employee_licenses WHERE id = $1 LIMIT 1", ledgerColumns)
	var entry models.EmployeeLicense
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find ledger entry by id: %w", err)
	}
	return &entry, nil
}

// Create persists a new ledger entry. Existing rows are never replaced;
// a new achievement supersedes by recency.
func (r *LedgerRepository) Create(ctx context.Context, entry *models.EmployeeLicense) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.AchievedAt.IsZero() {
		entry.AchievedAt = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = models.LedgerStatusValid
	}
	if entry.LevelAchieved < 1 {
		entry.LevelAchieved = 1
	}
	if entry.CanRenewFromLevel < 1 {
		entry.CanRenewFromLevel = entry.LevelAchieved
	}

	const query = `INSERT INTO employee_licenses (id, employee_id, license_id, status, level_achieved, can_renew_from_level, expires_at, achieved_at, created_at, updated_at)
        VALUES (:id, :employee_id, :license_id, :status, :level_achieved, :can_renew_from_level, :expires_at, :achieved_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// UpdateLevels updates the achieved level and renewal floor after a
// re-assessment.
func (r *LedgerRepository) UpdateLevels(ctx context.Context, id string, levelAchieved, canRenewFromLevel int) error {
	const query = `UPDATE employee_licenses SET level_achieved = $2, can_renew_from_level = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, levelAchieved, canRenewFromLevel, time.Now().UTC()); err != nil {
		return fmt.Errorf("update ledger levels: %w", err)
	}
	return nil
}

// UpdateStatus moves a ledger entry to a new status.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, id string, status models.LedgerStatus) error {
	const query = `UPDATE employee_licenses SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update ledger status: %w", err)
	}
	return nil
}
