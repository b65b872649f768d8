package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noventis/certtrack-api/internal/models"
)

// ErrDuplicateExemption signals the write sink rejected a grant because an
// active exemption already exists for the (employee, license) pair.
var ErrDuplicateExemption = errors.New("duplicate active exemption")

const exemptionColumns = "id, employee_id, license_id, type, status, reason, justification, effective_at, expires_at, granted_by, operation_id, created_at"

// ExemptionRepository handles persistence of exemption grants, mass
// operation audit rows and their per-employee results.
type ExemptionRepository struct {
	db *sqlx.DB
}

// NewExemptionRepository constructs the repository.
func NewExemptionRepository(db *sqlx.DB) *ExemptionRepository {
	return &ExemptionRepository{db: db}
}

// FindActive returns the active exemption for an (employee, license) pair
// at the given instant, or sql.ErrNoRows when none exists.
func (r *ExemptionRepository) FindActive(ctx context.Context, employeeID, licenseID string, now time.Time) (*models.Exemption, error) {
	query := fmt.Sprintf(`SELECT %s FROM exemptions WHERE employee_id = $1 AND license_id = $2 AND status = $3 AND effective_at <= $4 AND (expires_at IS NULL OR expires_at > $4) LIMIT 1`, exemptionColumns)
	var exemption models.Exemption
	if err := r.db.GetContext(ctx, &exemption, query, employeeID, licenseID, models.ExemptionStatusApproved, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active exemption: %w", err)
	}
	return &exemption, nil
}

// ListForEmployee returns all exemption grants for one employee.
func (r *ExemptionRepository) ListForEmployee(ctx context.Context, employeeID string) ([]models.Exemption, error) {
	query := fmt.Sprintf("SELECT %s FROM exemptions WHERE employee_id = $1 ORDER BY created_at DESC", exemptionColumns)
	var exemptions []models.Exemption
	if err := r.db.SelectContext(ctx, &exemptions, query, employeeID); err != nil {
		return nil, fmt.Errorf("list exemptions: %w", err)
	}
	return exemptions, nil
}

// Create persists an exemption grant. The database enforces uniqueness of
// active grants per (employee, license); violations map to
// ErrDuplicateExemption so batch callers can record them as row failures.
func (r *ExemptionRepository) Create(ctx context.Context, exemption *models.Exemption) error {
	if exemption.ID == "" {
		exemption.ID = uuid.NewString()
	}
	if exemption.CreatedAt.IsZero() {
		exemption.CreatedAt = time.Now().UTC()
	}
	if exemption.Status == "" {
		exemption.Status = models.ExemptionStatusApproved
	}

	const query = `INSERT INTO exemptions (id, employee_id, license_id, type, status, reason, justification, effective_at, expires_at, granted_by, operation_id, created_at)
        VALUES (:id, :employee_id, :license_id, :type, :status, :reason, :justification, :effective_at, :expires_at, :granted_by, :operation_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exemption); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateExemption
		}
		return fmt.Errorf("create exemption: %w", err)
	}
	return nil
}

// Revoke marks an exemption as revoked.
func (r *ExemptionRepository) Revoke(ctx context.Context, id string) error {
	const query = `UPDATE exemptions SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExemptionStatusRevoked); err != nil {
		return fmt.Errorf("revoke exemption: %w", err)
	}
	return nil
}

// CreateOperation persists the audit row for a mass exemption run.
func (r *ExemptionRepository) CreateOperation(ctx context.Context, op *models.MassExemptionOperation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.ExecutedAt.IsZero() {
		op.ExecutedAt = time.Now().UTC()
	}
	const query = `INSERT INTO mass_exemption_operations (id, license_id, criteria_snapshot, type, reason, justification, effective_at, expires_at, employees_affected, success_count, error_count, status, executed_by, executed_at)
        VALUES (:id, :license_id, :criteria_snapshot, :type, :reason, :justification, :effective_at, :expires_at, :employees_affected, :success_count, :error_count, :status, :executed_by, :executed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, op); err != nil {
		return fmt.Errorf("create operation: %w", err)
	}
	return nil
}

// FinalizeOperation records the terminal counts and status of a run. The
// employees_affected column stays at its pre-execution value.
func (r *ExemptionRepository) FinalizeOperation(ctx context.Context, id string, successCount, errorCount int, status models.OperationStatus) error {
	const query = `UPDATE mass_exemption_operations SET success_count = $2, error_count = $3, status = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, successCount, errorCount, status); err != nil {
		return fmt.Errorf("finalize operation: %w", err)
	}
	return nil
}

// FindOperation returns one operation audit row.
func (r *ExemptionRepository) FindOperation(ctx context.Context, id string) (*models.MassExemptionOperation, error) {
	const query = `SELECT id, license_id, criteria_snapshot, type, reason, justification, effective_at, expires_at, employees_affected, success_count, error_count, status, executed_by, executed_at
        FROM mass_exemption_operations WHERE id = $1 LIMIT 1`
	var op models.MassExemptionOperation
	if err := r.db.GetContext(ctx, &op, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find operation: %w", err)
	}
	return &op, nil
}

// ListOperations returns operation audit rows, newest first.
func (r *ExemptionRepository) ListOperations(ctx context.Context, licenseID string, page, pageSize int) ([]models.MassExemptionOperation, int, error) {
	baseQuery := `FROM mass_exemption_operations WHERE 1=1`
	var conditions []string
	var args []interface{}

	if licenseID != "" {
		conditions = append(conditions, fmt.Sprintf("license_id = $%d", len(args)+1))
		args = append(args, licenseID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT id, license_id, criteria_snapshot, type, reason, justification, effective_at, expires_at, employees_affected, success_count, error_count, status, executed_by, executed_at %s ORDER BY executed_at DESC LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var ops []models.MassExemptionOperation
	if err := r.db.SelectContext(ctx, &ops, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count operations: %w", err)
	}
	return ops, total, nil
}

// CreateResult persists one per-employee outcome row.
func (r *ExemptionRepository) CreateResult(ctx context.Context, result *models.MassExemptionResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO mass_exemption_results (id, operation_id, employee_id, employee_name, success, error_message, exemption_id, created_at)
        VALUES (:id, :operation_id, :employee_id, :employee_name, :success, :error_message, :exemption_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create operation result: %w", err)
	}
	return nil
}

// ListResults returns the per-employee rows of one operation in stable order.
func (r *ExemptionRepository) ListResults(ctx context.Context, operationID string) ([]models.MassExemptionResult, error) {
	const query = `SELECT id, operation_id, employee_id, employee_name, success, error_message, exemption_id, created_at
        FROM mass_exemption_results WHERE operation_id = $1 ORDER BY employee_id`
	var results []models.MassExemptionResult
	if err := r.db.SelectContext(ctx, &results, query, operationID); err != nil {
		return nil, fmt.Errorf("list operation results: %w", err)
	}
	return results, nil
}
