package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noventis/certtrack-api/internal/models"
)

// LicenseRepository handles persistence of the license catalog.
type LicenseRepository struct {
	db *sqlx.DB
}

// NewLicenseRepository constructs the repository.
func NewLicenseRepository(db *sqlx.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// List returns catalog entries filtered by the provided criteria.
func (r *LicenseRepository) List(ctx context.Context, filter models.LicenseFilter) ([]models.License, int, error) {
	baseQuery := `FROM licenses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"category":   true,
		"level":      true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, name, category, level, level_description, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)

	var licenses []models.License
	if err := r.db.SelectContext(ctx, &licenses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list licenses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count licenses: %w", err)
	}

	return licenses, total, nil
}

// ListAll returns the complete catalog without pagination.
func (r *LicenseRepository) ListAll(ctx context.Context) ([]models.License, error) {
	const query = `SELECT id, name, category, level, level_description, created_at, updated_at FROM licenses ORDER BY category, level, name`
	var licenses []models.License
	if err := r.db.SelectContext(ctx, &licenses, query); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return licenses, nil
}

// FindByID returns a license by identifier.
func (r *LicenseRepository) FindByID(ctx context.Context, id string) (*models.License, error) {
	const query = `SELECT id, name, category, level, level_description, created_at, updated_at FROM licenses WHERE id = $1 LIMIT 1`
	var license models.License
	if err := r.db.GetContext(ctx, &license, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find license by id: %w", err)
	}
	return &license, nil
}

// Create inserts a new catalog entry.
func (r *LicenseRepository) Create(ctx context.Context, license *models.License) error {
	if license.ID == "" {
		license.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if license.CreatedAt.IsZero() {
		license.CreatedAt = now
	}
	license.UpdatedAt = now
	if license.Level < 1 {
		license.Level = 1
	}

	const query = `INSERT INTO licenses (id, name, category, level, level_description, created_at, updated_at)
        VALUES (:id, :name, :category, :level, :level_description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, license); err != nil {
		return fmt.Errorf("create license: %w", err)
	}
	return nil
}

// Update updates mutable fields of a catalog entry.
func (r *LicenseRepository) Update(ctx context.Context, license *models.License) error {
	license.UpdatedAt = time.Now().UTC()
	const query = `UPDATE licenses SET name = :name, category = :category, level = :level, level_description = :level_description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, license); err != nil {
		return fmt.Errorf("update license: %w", err)
	}
	return nil
}

// Delete removes a catalog entry.
func (r *LicenseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM licenses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	return nil
}

// IsReferenced reports whether any ledger entry references the license.
func (r *LicenseRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM employee_licenses WHERE license_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check license references: %w", err)
	}
	return true, nil
}
