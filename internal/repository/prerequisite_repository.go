package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noventis/certtrack-api/internal/models"
)

// PrerequisiteRepository handles persistence of prerequisite edges.
type PrerequisiteRepository struct {
	db *sqlx.DB
}

// NewPrerequisiteRepository constructs the repository.
func NewPrerequisiteRepository(db *sqlx.DB) *PrerequisiteRepository {
	return &PrerequisiteRepository{db: db}
}

// ListAll returns every prerequisite edge.
func (r *PrerequisiteRepository) ListAll(ctx context.Context) ([]models.PrerequisiteEdge, error) {
	const query = `SELECT license_id, prerequisite_id, created_at FROM license_prerequisites ORDER BY license_id, prerequisite_id`
	var edges []models.PrerequisiteEdge
	if err := r.db.SelectContext(ctx, &edges, query); err != nil {
		return nil, fmt.Errorf("list prerequisite edges: %w", err)
	}
	return edges, nil
}

// ListForLicense returns the direct prerequisites of one license.
func (r *PrerequisiteRepository) ListForLicense(ctx context.Context, licenseID string) ([]models.PrerequisiteEdge, error) {
	const query = `SELECT license_id, prerequisite_id, created_at FROM license_prerequisites WHERE license_id = $1 ORDER BY prerequisite_id`
	var edges []models.PrerequisiteEdge
	if err := r.db.SelectContext(ctx, &edges, query, licenseID); err != nil {
		return nil, fmt.Errorf("list prerequisites for license: %w", err)
	}
	return edges, nil
}

// Create inserts a prerequisite edge.
func (r *PrerequisiteRepository) Create(ctx context.Context, edge *models.PrerequisiteEdge) error {
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO license_prerequisites (license_id, prerequisite_id, created_at) VALUES (:license_id, :prerequisite_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, edge); err != nil {
		return fmt.Errorf("create prerequisite edge: %w", err)
	}
	return nil
}

// Delete removes a prerequisite edge.
func (r *PrerequisiteRepository) Delete(ctx context.Context, licenseID, prerequisiteID string) error {
	const query = `DELETE FROM license_prerequisites WHERE license_id = $1 AND prerequisite_id = $2`
	result, err := r.db.ExecContext(ctx, query, licenseID, prerequisiteID)
	if err != nil {
		return fmt.Errorf("delete prerequisite edge: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("prerequisite edge not found")
	}
	return nil
}
