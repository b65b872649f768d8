package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noventis/certtrack-api/internal/dto"
	"github.com/noventis/certtrack-api/internal/models"
	"github.com/noventis/certtrack-api/internal/repository"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
	"github.com/noventis/certtrack-api/pkg/jobs"
)

// JobTypeRuleRun labels queued auto-exemption rule executions.
const JobTypeRuleRun = "exemption-rule-run"

type employeePopulation interface {
	QueryByCriteria(ctx context.Context, criteria models.ExemptionCriteria, now time.Time, limit int) ([]models.EmployeeSummary, error)
}

type exemptionStore interface {
	FindActive(ctx context.Context, employeeID, licenseID string, now time.Time) (*models.Exemption, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]models.Exemption, error)
	Create(ctx context.Context, exemption *models.Exemption) error
	Revoke(ctx context.Context, id string) error
	CreateOperation(ctx context.Context, op *models.MassExemptionOperation) error
	FinalizeOperation(ctx context.Context, id string, successCount, errorCount int, status models.OperationStatus) error
	FindOperation(ctx context.Context, id string) (*models.MassExemptionOperation, error)
	ListOperations(ctx context.Context, licenseID string, page, pageSize int) ([]models.MassExemptionOperation, int, error)
	CreateResult(ctx context.Context, result *models.MassExemptionResult) error
	ListResults(ctx context.Context, operationID string) ([]models.MassExemptionResult, error)
}

type templateStore interface {
	ListTemplates(ctx context.Context) ([]models.ExemptionTemplate, error)
	FindTemplate(ctx context.Context, id string) (*models.ExemptionTemplate, error)
	CreateTemplate(ctx context.Context, template *models.ExemptionTemplate) error
	UpdateTemplate(ctx context.Context, template *models.ExemptionTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	IncrementTemplateUsage(ctx context.Context, id string) error
	ListRules(ctx context.Context) ([]models.AutoExemptionRule, error)
	FindRule(ctx context.Context, id string) (*models.AutoExemptionRule, error)
	CreateRule(ctx context.Context, rule *models.AutoExemptionRule) error
	UpdateRule(ctx context.Context, rule *models.AutoExemptionRule) error
	DeleteRule(ctx context.Context, id string) error
}

// RuleRunPayload is carried on the job queue for asynchronous rule runs.
type RuleRunPayload struct {
	RuleID  string
	ActorID string
}

// ExemptionService previews exemption criteria, executes mass exemption
// runs with per-employee accounting, and manages templates and
// auto-exemption rules.
type ExemptionService struct {
	employees  employeePopulation
	exemptions exemptionStore
	templates  templateStore
	catalog    *CatalogService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger

	previewLimit int
	enabled      bool
	ruleQueue    *jobs.Queue
}

// NewExemptionService constructs the exemption service.
func NewExemptionService(employees employeePopulation, exemptions exemptionStore, templates templateStore, catalog *CatalogService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, previewLimit int, enabled bool) *ExemptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExemptionService{
		employees:    employees,
		exemptions:   exemptions,
		templates:    templates,
		catalog:      catalog,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		previewLimit: previewLimit,
		enabled:      enabled,
	}
}

// AttachRuleQueue wires the background queue used for asynchronous rule runs.
func (s *ExemptionService) AttachRuleQueue(queue *jobs.Queue) {
	s.ruleQueue = queue
}

func validExemptionType(t models.ExemptionType) bool {
	switch t {
	case models.ExemptionPermanent, models.ExemptionTemporary, models.ExemptionConditional:
		return true
	}
	return false
}

// validateCriteria rejects malformed criteria before any I/O. An empty
// criteria set is refused outright so a zero-field request can never read
// the whole population.
func (s *ExemptionService) validateCriteria(criteria models.ExemptionCriteria) error {
	if criteria.Empty() {
		return appErrors.Clone(appErrors.ErrEmptyCriteria, "")
	}
	if criteria.MinServiceYears != nil && *criteria.MinServiceYears < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "min service years must not be negative")
	}
	if criteria.MaxServiceYears != nil && *criteria.MaxServiceYears < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "max service years must not be negative")
	}
	if criteria.MinServiceYears != nil && criteria.MaxServiceYears != nil && *criteria.MinServiceYears > *criteria.MaxServiceYears {
		return appErrors.Clone(appErrors.ErrValidation, "min service years exceeds max service years")
	}
	if criteria.HiredFrom != nil && criteria.HiredTo != nil && criteria.HiredFrom.After(*criteria.HiredTo) {
		return appErrors.Clone(appErrors.ErrValidation, "hired-from bound is after hired-to bound")
	}
	if criteria.ExcludeExistingFor && criteria.LicenseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "excluding existing exemptions requires a target license")
	}
	return nil
}

// Preview returns the employees a criteria set would match right now.
func (s *ExemptionService) Preview(ctx context.Context, req dto.PreviewExemptionRequest) ([]models.EmployeeSummary, error) {
	if err := s.validateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	if req.Criteria.LicenseID != "" {
		if _, err := s.catalog.Get(ctx, req.Criteria.LicenseID); err != nil {
			return nil, err
		}
	}
	summaries, err := s.employees.QueryByCriteria(ctx, req.Criteria, time.Now().UTC(), s.previewLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to preview matching employees")
	}
	return summaries, nil
}

func (s *ExemptionService) validateExecuteRequest(req *dto.ExecuteExemptionRequest) error {
	if err := s.validator.Struct(*req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exemption payload")
	}
	if err := s.validateCriteria(req.Criteria); err != nil {
		return err
	}
	if req.Criteria.LicenseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "target license is required")
	}
	if !validExemptionType(req.Type) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown exemption type")
	}
	if req.EffectiveAt.IsZero() {
		req.EffectiveAt = time.Now().UTC()
	}
	if req.Type == models.ExemptionTemporary && req.ExpiresAt == nil {
		return appErrors.Clone(appErrors.ErrValidation, "temporary exemptions require an expiry date")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(req.EffectiveAt) {
		return appErrors.Clone(appErrors.ErrValidation, "expiry date must be after effective date")
	}
	if req.SaveTemplate && req.TemplateName == "" {
		return appErrors.Clone(appErrors.ErrValidation, "template name is required to save a template")
	}
	return nil
}

// Execute runs a mass exemption: it re-evaluates the matching population,
// writes an immutable operation audit row, then grants exemptions best
// effort with one result row per employee. A per-employee failure never
// aborts the batch. Cancellation stops issuing new grants but keeps the
// rows already written and finalizes the operation as cancelled.
func (s *ExemptionService) Execute(ctx context.Context, req dto.ExecuteExemptionRequest, actorID string) (*dto.OperationOutcome, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "mass exemptions are disabled")
	}
	if err := s.validateExecuteRequest(&req); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Get(ctx, req.Criteria.LicenseID); err != nil {
		return nil, err
	}

	if req.TemplateID != "" {
		if _, err := s.templates.FindTemplate(ctx, req.TemplateID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
		}
		if err := s.templates.IncrementTemplateUsage(ctx, req.TemplateID); err != nil {
			s.logger.Warn("template usage increment failed", zap.String("template_id", req.TemplateID), zap.Error(err))
		}
	}
	if req.SaveTemplate {
		if _, err := s.saveTemplateFromRequest(ctx, req, actorID); err != nil {
			return nil, err
		}
	}

	// The preview count from an earlier UI render is never trusted; the
	// population is re-evaluated at execution time.
	now := time.Now().UTC()
	matched, err := s.employees.QueryByCriteria(ctx, req.Criteria, now, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate matching employees")
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	snapshot, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot criteria")
	}

	op := &models.MassExemptionOperation{
		ID:                uuid.NewString(),
		LicenseID:         req.Criteria.LicenseID,
		CriteriaSnapshot:  snapshot,
		Type:              req.Type,
		Reason:            req.Reason,
		Justification:     req.Justification,
		EffectiveAt:       req.EffectiveAt,
		ExpiresAt:         req.ExpiresAt,
		EmployeesAffected: len(matched),
		Status:            models.OperationStatusRunning,
		ExecutedBy:        actorID,
		ExecutedAt:        now,
	}
	if err := s.exemptions.CreateOperation(ctx, op); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create operation record")
	}

	start := time.Now()
	successCount, errorCount := 0, 0
	cancelled := false

	for _, employee := range matched {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		grant := &models.Exemption{
			EmployeeID:    employee.ID,
			LicenseID:     req.Criteria.LicenseID,
			Type:          req.Type,
			Status:        models.ExemptionStatusApproved,
			Reason:        req.Reason,
			Justification: req.Justification,
			EffectiveAt:   req.EffectiveAt,
			ExpiresAt:     req.ExpiresAt,
			GrantedBy:     actorID,
			OperationID:   &op.ID,
		}

		result := &models.MassExemptionResult{
			OperationID:  op.ID,
			EmployeeID:   employee.ID,
			EmployeeName: employee.FullName,
		}
		if err := s.exemptions.Create(ctx, grant); err != nil {
			errorCount++
			result.Success = false
			result.ErrorMessage = err.Error()
			if !errors.Is(err, repository.ErrDuplicateExemption) {
				s.logger.Warn("exemption grant failed",
					zap.String("operation_id", op.ID),
					zap.String("employee_id", employee.ID),
					zap.Error(err))
			}
		} else {
			successCount++
			result.Success = true
			result.ExemptionID = &grant.ID
		}
		// The grant attempt already happened; its accounting row has to
		// land even when the request context was cancelled mid-flight.
		resultCtx := ctx
		if ctx.Err() != nil {
			resultCtx = context.WithoutCancel(ctx)
		}
		if err := s.exemptions.CreateResult(resultCtx, result); err != nil {
			s.logger.Error("result row write failed",
				zap.String("operation_id", op.ID),
				zap.String("employee_id", employee.ID),
				zap.Error(err))
		}
	}

	status := models.OperationStatusCompleted
	switch {
	case cancelled:
		status = models.OperationStatusCancelled
	case errorCount > 0:
		status = models.OperationStatusPartial
	}

	// Finalize even when the request context was cancelled so partial
	// progress stays accounted for.
	finalizeCtx := ctx
	if cancelled {
		finalizeCtx = context.WithoutCancel(ctx)
	}
	if err := s.exemptions.FinalizeOperation(finalizeCtx, op.ID, successCount, errorCount, status); err != nil {
		s.logger.Error("operation finalize failed", zap.String("operation_id", op.ID), zap.Error(err))
	}
	s.metrics.ObserveBatchRun(successCount, errorCount, time.Since(start))

	op.SuccessCount = successCount
	op.ErrorCount = errorCount
	op.Status = status

	s.logger.Info("mass exemption executed",
		zap.String("operation_id", op.ID),
		zap.String("license_id", op.LicenseID),
		zap.Int("employees_affected", op.EmployeesAffected),
		zap.Int("success_count", successCount),
		zap.Int("error_count", errorCount),
		zap.String("status", string(status)))

	return &dto.OperationOutcome{
		Operation:    *op,
		SuccessCount: successCount,
		ErrorCount:   errorCount,
		TotalCount:   len(matched),
	}, nil
}

func (s *ExemptionService) saveTemplateFromRequest(ctx context.Context, req dto.ExecuteExemptionRequest, actorID string) (*models.ExemptionTemplate, error) {
	criteria, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to marshal criteria")
	}
	template := &models.ExemptionTemplate{
		Name:          req.TemplateName,
		LicenseID:     req.Criteria.LicenseID,
		Criteria:      criteria,
		Type:          req.Type,
		DefaultReason: req.Reason,
		UsageCount:    1,
		CreatedBy:     actorID,
	}
	if err := s.templates.CreateTemplate(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save template")
	}
	return template, nil
}

// GetOperation returns an operation with its per-employee result rows.
func (s *ExemptionService) GetOperation(ctx context.Context, id string) (*dto.OperationDetail, error) {
	op, err := s.exemptions.FindOperation(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "operation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operation")
	}
	results, err := s.exemptions.ListResults(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operation results")
	}
	return &dto.OperationDetail{Operation: *op, Results: results}, nil
}

// ListOperations returns operation audit rows, newest first.
func (s *ExemptionService) ListOperations(ctx context.Context, licenseID string, page, pageSize int) ([]models.MassExemptionOperation, *models.Pagination, error) {
	ops, total, err := s.exemptions.ListOperations(ctx, licenseID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list operations")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return ops, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListForEmployee returns all exemption grants held by one employee.
func (s *ExemptionService) ListForEmployee(ctx context.Context, employeeID string) ([]models.Exemption, error) {
	exemptions, err := s.exemptions.ListForEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exemptions")
	}
	return exemptions, nil
}

// ActiveExemption returns the employee's active exemption for a license,
// or nil when none exists.
func (s *ExemptionService) ActiveExemption(ctx context.Context, employeeID, licenseID string) (*models.Exemption, error) {
	exemption, err := s.exemptions.FindActive(ctx, employeeID, licenseID, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active exemption")
	}
	return exemption, nil
}

// Revoke marks an exemption as revoked.
func (s *ExemptionService) Revoke(ctx context.Context, id string) error {
	if err := s.exemptions.Revoke(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke exemption")
	}
	return nil
}

// ListTemplates returns all saved criteria templates.
func (s *ExemptionService) ListTemplates(ctx context.Context) ([]models.ExemptionTemplate, error) {
	templates, err := s.templates.ListTemplates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// GetTemplate returns one template.
func (s *ExemptionService) GetTemplate(ctx context.Context, id string) (*models.ExemptionTemplate, error) {
	template, err := s.templates.FindTemplate(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// CreateTemplate saves a reusable criteria bundle.
func (s *ExemptionService) CreateTemplate(ctx context.Context, req dto.SaveTemplateRequest, actorID string) (*models.ExemptionTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if err := s.validateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	if !validExemptionType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exemption type")
	}
	criteria, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to marshal criteria")
	}
	template := &models.ExemptionTemplate{
		Name:          req.Name,
		Description:   req.Description,
		LicenseID:     req.Criteria.LicenseID,
		Criteria:      criteria,
		Type:          req.Type,
		DefaultReason: req.DefaultReason,
		CreatedBy:     actorID,
	}
	if err := s.templates.CreateTemplate(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return template, nil
}

// UpdateTemplate modifies a saved template.
func (s *ExemptionService) UpdateTemplate(ctx context.Context, id string, req dto.SaveTemplateRequest) (*models.ExemptionTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if err := s.validateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	template, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	criteria, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to marshal criteria")
	}
	template.Name = req.Name
	template.Description = req.Description
	template.LicenseID = req.Criteria.LicenseID
	template.Criteria = criteria
	template.Type = req.Type
	template.DefaultReason = req.DefaultReason
	if err := s.templates.UpdateTemplate(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return template, nil
}

// DeleteTemplate removes a saved template.
func (s *ExemptionService) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.GetTemplate(ctx, id); err != nil {
		return err
	}
	if err := s.templates.DeleteTemplate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

// ListRules returns all auto-exemption rules.
func (s *ExemptionService) ListRules(ctx context.Context) ([]models.AutoExemptionRule, error) {
	rules, err := s.templates.ListRules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	return rules, nil
}

// GetRule returns one auto-exemption rule.
func (s *ExemptionService) GetRule(ctx context.Context, id string) (*models.AutoExemptionRule, error) {
	rule, err := s.templates.FindRule(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	return rule, nil
}

// CreateRule saves an auto-exemption rule definition.
func (s *ExemptionService) CreateRule(ctx context.Context, req dto.SaveRuleRequest, actorID string) (*models.AutoExemptionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	if err := s.validateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	if req.Criteria.LicenseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target license is required")
	}
	if !validExemptionType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exemption type")
	}
	if req.Type == models.ExemptionTemporary && req.ExpiresAfterDays == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "temporary exemption rules require an expiry window")
	}
	criteria, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to marshal criteria")
	}
	rule := &models.AutoExemptionRule{
		Name:               req.Name,
		LicenseID:          req.Criteria.LicenseID,
		Criteria:           criteria,
		Type:               req.Type,
		Reason:             req.Reason,
		EffectiveAfterDays: req.EffectiveAfterDays,
		ExpiresAfterDays:   req.ExpiresAfterDays,
		Enabled:            req.Enabled,
		CreatedBy:          actorID,
	}
	if err := s.templates.CreateRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	return rule, nil
}

// UpdateRule modifies an auto-exemption rule.
func (s *ExemptionService) UpdateRule(ctx context.Context, id string, req dto.SaveRuleRequest) (*models.AutoExemptionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	if err := s.validateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	criteria, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to marshal criteria")
	}
	rule.Name = req.Name
	rule.LicenseID = req.Criteria.LicenseID
	rule.Criteria = criteria
	rule.Type = req.Type
	rule.Reason = req.Reason
	rule.EffectiveAfterDays = req.EffectiveAfterDays
	rule.ExpiresAfterDays = req.ExpiresAfterDays
	rule.Enabled = req.Enabled
	if err := s.templates.UpdateRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}
	return rule, nil
}

// DeleteRule removes an auto-exemption rule.
func (s *ExemptionService) DeleteRule(ctx context.Context, id string) error {
	if _, err := s.GetRule(ctx, id); err != nil {
		return err
	}
	if err := s.templates.DeleteRule(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	return nil
}

// EnqueueRuleRun schedules an asynchronous execution of an enabled rule.
func (s *ExemptionService) EnqueueRuleRun(ctx context.Context, ruleID, actorID string) error {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}
	if !rule.Enabled {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "rule is disabled")
	}
	if s.ruleQueue == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "rule runner is not available")
	}
	if err := s.ruleQueue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeRuleRun,
		Payload: RuleRunPayload{RuleID: ruleID, ActorID: actorID},
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue rule run")
	}
	return nil
}

// RunRule executes an auto-exemption rule through the mass exemption
// runner, deriving effective and expiry dates from the rule's windows.
func (s *ExemptionService) RunRule(ctx context.Context, ruleID, actorID string) (*dto.OperationOutcome, error) {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "rule is disabled")
	}

	var criteria models.ExemptionCriteria
	if err := json.Unmarshal(rule.Criteria, &criteria); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "stored rule criteria is malformed")
	}
	criteria.LicenseID = rule.LicenseID
	// Rule runs always skip employees already covered so re-application
	// stays idempotent.
	criteria.ExcludeExistingFor = true

	effectiveAt := time.Now().UTC().AddDate(0, 0, rule.EffectiveAfterDays)
	var expiresAt *time.Time
	if rule.ExpiresAfterDays != nil {
		expiry := effectiveAt.AddDate(0, 0, *rule.ExpiresAfterDays)
		expiresAt = &expiry
	}

	return s.Execute(ctx, dto.ExecuteExemptionRequest{
		Criteria:      criteria,
		Type:          rule.Type,
		Reason:        rule.Reason,
		Justification: "auto-exemption rule: " + rule.Name,
		EffectiveAt:   effectiveAt,
		ExpiresAt:     expiresAt,
	}, actorID)
}
