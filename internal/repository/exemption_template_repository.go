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

const templateColumns = "id, name, description, license_id, criteria, type, default_reason, usage_count, created_by, created_at, updated_at"

const ruleColumns = "id, name, license_id, criteria, type, reason, effective_after_days, expires_after_days, enabled, created_by, created_at, updated_at"

// ExemptionTemplateRepository persists reusable criteria bundles and
// auto-exemption rules.
type ExemptionTemplateRepository struct {
	db *sqlx.DB
}

// NewExemptionTemplateRepository constructs the repository.
func NewExemptionTemplateRepository(db *sqlx.DB) *ExemptionTemplateRepository {
	return &ExemptionTemplateRepository{db: db}
}

// ListTemplates returns all saved templates.
func (r *ExemptionTemplateRepository) ListTemplates(ctx context.Context) ([]models.ExemptionTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM exemption_templates ORDER BY name", templateColumns)
	var templates []models.ExemptionTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// FindTemplate returns a template by identifier.
func (r *ExemptionTemplateRepository) FindTemplate(ctx context.Context, id string) (*models.ExemptionTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM exemption_templates WHERE id = $1 LIMIT 1", templateColumns)
	var template models.ExemptionTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return &template, nil
}

// CreateTemplate persists a new template.
func (r *ExemptionTemplateRepository) CreateTemplate(ctx context.Context, template *models.ExemptionTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	const query = `INSERT INTO exemption_templates (id, name, description, license_id, criteria, type, default_reason, usage_count, created_by, created_at, updated_at)
        VALUES (:id, :name, :description, :license_id, :criteria, :type, :default_reason, :usage_count, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// UpdateTemplate updates mutable fields of a template.
func (r *ExemptionTemplateRepository) UpdateTemplate(ctx context.Context, template *models.ExemptionTemplate) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exemption_templates SET name = :name, description = :description, license_id = :license_id, criteria = :criteria, type = :type, default_reason = :default_reason, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template.
func (r *ExemptionTemplateRepository) DeleteTemplate(ctx context.Context, id string) error {
	const query = `DELETE FROM exemption_templates WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// IncrementTemplateUsage bumps the usage counter of a template.
func (r *ExemptionTemplateRepository) IncrementTemplateUsage(ctx context.Context, id string) error {
	const query = `UPDATE exemption_templates SET usage_count = usage_count + 1, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment template usage: %w", err)
	}
	return nil
}

// ListRules returns all auto-exemption rules.
func (r *ExemptionTemplateRepository) ListRules(ctx context.Context) ([]models.AutoExemptionRule, error) {
	query := fmt.Sprintf("SELECT %s FROM auto_exemption_rules ORDER BY name", ruleColumns)
	var rules []models.AutoExemptionRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// FindRule returns a rule by identifier.
func (r *ExemptionTemplateRepository) FindRule(ctx context.Context, id string) (*models.AutoExemptionRule, error) {
	query := fmt.Sprintf("SELECT %s FROM auto_exemption_rules WHERE id = $1 LIMIT 1", ruleColumns)
	var rule models.AutoExemptionRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return &rule, nil
}

// CreateRule persists a new auto-exemption rule.
func (r *ExemptionTemplateRepository) CreateRule(ctx context.Context, rule *models.AutoExemptionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO auto_exemption_rules (id, name, license_id, criteria, type, reason, effective_after_days, expires_after_days, enabled, created_by, created_at, updated_at)
        VALUES (:id, :name, :license_id, :criteria, :type, :reason, :effective_after_days, :expires_after_days, :enabled, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// UpdateRule updates mutable fields of a rule.
func (r *ExemptionTemplateRepository) UpdateRule(ctx context.Context, rule *models.AutoExemptionRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE auto_exemption_rules SET name = :name, license_id = :license_id, criteria = :criteria, type = :type, reason = :reason, effective_after_days = :effective_after_days, expires_after_days = :expires_after_days, enabled = :enabled, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule.
func (r *ExemptionTemplateRepository) DeleteRule(ctx context.Context, id string) error {
	const query = `DELETE FROM auto_exemption_rules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}
