package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noventis/certtrack-api/internal/dto"
	"github.com/noventis/certtrack-api/internal/models"
	"github.com/noventis/certtrack-api/internal/repository"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
)

type mockPopulation struct {
	summaries    []models.EmployeeSummary
	lastCriteria models.ExemptionCriteria
	lastLimit    int
	err          error
}

func (m *mockPopulation) QueryByCriteria(_ context.Context, criteria models.ExemptionCriteria, _ time.Time, limit int) ([]models.EmployeeSummary, error) {
	m.lastCriteria = criteria
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.summaries, nil
}

type finalizeCall struct {
	operationID  string
	successCount int
	errorCount   int
	status       models.OperationStatus
}

type mockExemptionStore struct {
	active     map[string]*models.Exemption
	created    []*models.Exemption
	duplicates map[string]bool
	operations map[string]*models.MassExemptionOperation
	results    []models.MassExemptionResult
	revoked    []string
	finalized  *finalizeCall
	onCreate   func(*models.Exemption)
}

func newMockExemptionStore() *mockExemptionStore {
	return &mockExemptionStore{
		active:     map[string]*models.Exemption{},
		duplicates: map[string]bool{},
		operations: map[string]*models.MassExemptionOperation{},
	}
}

func (m *mockExemptionStore) FindActive(_ context.Context, employeeID, licenseID string, _ time.Time) (*models.Exemption, error) {
	exemption, ok := m.active[employeeID+"/"+licenseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return exemption, nil
}

func (m *mockExemptionStore) ListForEmployee(_ context.Context, employeeID string) ([]models.Exemption, error) {
	var exemptions []models.Exemption
	for _, e := range m.created {
		if e.EmployeeID == employeeID {
			exemptions = append(exemptions, *e)
		}
	}
	return exemptions, nil
}

func (m *mockExemptionStore) Create(_ context.Context, exemption *models.Exemption) error {
	if m.onCreate != nil {
		m.onCreate(exemption)
	}
	if m.duplicates[exemption.EmployeeID] {
		return repository.ErrDuplicateExemption
	}
	if exemption.ID == "" {
		exemption.ID = uuid.NewString()
	}
	m.created = append(m.created, exemption)
	return nil
}

func (m *mockExemptionStore) Revoke(_ context.Context, id string) error {
	m.revoked = append(m.revoked, id)
	return nil
}

func (m *mockExemptionStore) CreateOperation(_ context.Context, op *models.MassExemptionOperation) error {
	m.operations[op.ID] = op
	return nil
}

func (m *mockExemptionStore) FinalizeOperation(_ context.Context, id string, successCount, errorCount int, status models.OperationStatus) error {
	m.finalized = &finalizeCall{operationID: id, successCount: successCount, errorCount: errorCount, status: status}
	return nil
}

func (m *mockExemptionStore) FindOperation(_ context.Context, id string) (*models.MassExemptionOperation, error) {
	op, ok := m.operations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return op, nil
}

func (m *mockExemptionStore) ListOperations(_ context.Context, _ string, _, _ int) ([]models.MassExemptionOperation, int, error) {
	var ops []models.MassExemptionOperation
	for _, op := range m.operations {
		ops = append(ops, *op)
	}
	return ops, len(ops), nil
}

func (m *mockExemptionStore) CreateResult(ctx context.Context, result *models.MassExemptionResult) error {
	// A real store refuses writes on a dead context.
	if err := ctx.Err(); err != nil {
		return err
	}
	m.results = append(m.results, *result)
	return nil
}

func (m *mockExemptionStore) ListResults(_ context.Context, operationID string) ([]models.MassExemptionResult, error) {
	var results []models.MassExemptionResult
	for _, r := range m.results {
		if r.OperationID == operationID {
			results = append(results, r)
		}
	}
	return results, nil
}

type mockTemplateStore struct {
	templates map[string]*models.ExemptionTemplate
	usage     map[string]int
	rules     map[string]*models.AutoExemptionRule
}

func newMockTemplateStore() *mockTemplateStore {
	return &mockTemplateStore{
		templates: map[string]*models.ExemptionTemplate{},
		usage:     map[string]int{},
		rules:     map[string]*models.AutoExemptionRule{},
	}
}

func (m *mockTemplateStore) ListTemplates(_ context.Context) ([]models.ExemptionTemplate, error) {
	var templates []models.ExemptionTemplate
	for _, t := range m.templates {
		templates = append(templates, *t)
	}
	return templates, nil
}

func (m *mockTemplateStore) FindTemplate(_ context.Context, id string) (*models.ExemptionTemplate, error) {
	template, ok := m.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return template, nil
}

func (m *mockTemplateStore) CreateTemplate(_ context.Context, template *models.ExemptionTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	m.templates[template.ID] = template
	return nil
}

func (m *mockTemplateStore) UpdateTemplate(_ context.Context, template *models.ExemptionTemplate) error {
	if _, ok := m.templates[template.ID]; !ok {
		return sql.ErrNoRows
	}
	m.templates[template.ID] = template
	return nil
}

func (m *mockTemplateStore) DeleteTemplate(_ context.Context, id string) error {
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateStore) IncrementTemplateUsage(_ context.Context, id string) error {
	m.usage[id]++
	return nil
}

func (m *mockTemplateStore) ListRules(_ context.Context) ([]models.AutoExemptionRule, error) {
	var rules []models.AutoExemptionRule
	for _, r := range m.rules {
		rules = append(rules, *r)
	}
	return rules, nil
}

func (m *mockTemplateStore) FindRule(_ context.Context, id string) (*models.AutoExemptionRule, error) {
	rule, ok := m.rules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rule, nil
}

func (m *mockTemplateStore) CreateRule(_ context.Context, rule *models.AutoExemptionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockTemplateStore) UpdateRule(_ context.Context, rule *models.AutoExemptionRule) error {
	if _, ok := m.rules[rule.ID]; !ok {
		return sql.ErrNoRows
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockTemplateStore) DeleteRule(_ context.Context, id string) error {
	delete(m.rules, id)
	return nil
}

func summary(id, name string) models.EmployeeSummary {
	return models.EmployeeSummary{
		ID:           id,
		FullName:     name,
		Department:   "OPERATIONS",
		ContractType: models.ContractPermanent,
		HiredAt:      time.Now().AddDate(-5, 0, 0),
		ServiceYears: 5,
	}
}

func newTestExemptionService(population *mockPopulation, store *mockExemptionStore, templates *mockTemplateStore, enabled bool) *ExemptionService {
	catalog := newTestCatalogService(newMockLicenseRepo(models.License{ID: "forklift", Name: "Forklift", Level: 2}), &mockPrerequisiteRepo{})
	return NewExemptionService(population, store, templates, catalog, nil, nil, nil, 25, enabled)
}

func executeRequest() dto.ExecuteExemptionRequest {
	return dto.ExecuteExemptionRequest{
		Criteria: models.ExemptionCriteria{
			LicenseID:   "forklift",
			Departments: []string{"OPERATIONS"},
		},
		Type:   models.ExemptionPermanent,
		Reason: "grandfathered under prior regulation",
	}
}

func TestExemptionServicePreviewRejectsEmptyCriteria(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)

	_, err := svc.Preview(context.Background(), dto.PreviewExemptionRequest{
		Criteria: models.ExemptionCriteria{LicenseID: "forklift"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyCriteria.Code, appErrors.FromError(err).Code)
}

func TestExemptionServicePreviewValidatesServiceYearBounds(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)

	minYears, maxYears := 5.0, 2.0
	_, err := svc.Preview(context.Background(), dto.PreviewExemptionRequest{
		Criteria: models.ExemptionCriteria{MinServiceYears: &minYears, MaxServiceYears: &maxYears},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	negative := -1.0
	_, err = svc.Preview(context.Background(), dto.PreviewExemptionRequest{
		Criteria: models.ExemptionCriteria{MinServiceYears: &negative},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExemptionServicePreviewUnknownLicense(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)

	_, err := svc.Preview(context.Background(), dto.PreviewExemptionRequest{
		Criteria: models.ExemptionCriteria{LicenseID: "missing", Departments: []string{"OPERATIONS"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExemptionServicePreviewAppliesLimit(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{summary("emp-1", "Dina Kusuma")}}
	svc := newTestExemptionService(population, newMockExemptionStore(), newMockTemplateStore(), true)

	summaries, err := svc.Preview(context.Background(), dto.PreviewExemptionRequest{
		Criteria: models.ExemptionCriteria{Departments: []string{"OPERATIONS"}},
	})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, 25, population.lastLimit)
}

func TestExemptionServiceExecuteDisabled(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), false)

	_, err := svc.Execute(context.Background(), executeRequest(), "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestExemptionServiceExecuteCompleted(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{
		summary("emp-3", "Citra Dewi"),
		summary("emp-1", "Agus Salim"),
		summary("emp-2", "Budi Santoso"),
	}}
	store := newMockExemptionStore()
	svc := newTestExemptionService(population, store, newMockTemplateStore(), true)

	outcome, err := svc.Execute(context.Background(), executeRequest(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.TotalCount)
	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.ErrorCount)
	assert.Equal(t, models.OperationStatusCompleted, outcome.Operation.Status)
	assert.Equal(t, 3, outcome.Operation.EmployeesAffected)
	assert.Equal(t, "admin-1", outcome.Operation.ExecutedBy)

	// The full population is re-evaluated at execution time, unbounded.
	assert.Equal(t, 0, population.lastLimit)

	require.Len(t, store.created, 3)
	for _, grant := range store.created {
		assert.Equal(t, "forklift", grant.LicenseID)
		assert.Equal(t, models.ExemptionStatusApproved, grant.Status)
		require.NotNil(t, grant.OperationID)
		assert.Equal(t, outcome.Operation.ID, *grant.OperationID)
	}

	// Grants are issued in employee id order.
	assert.Equal(t, "emp-1", store.created[0].EmployeeID)
	assert.Equal(t, "emp-2", store.created[1].EmployeeID)
	assert.Equal(t, "emp-3", store.created[2].EmployeeID)

	require.Len(t, store.results, 3)
	for _, result := range store.results {
		assert.True(t, result.Success)
		assert.NotNil(t, result.ExemptionID)
	}

	require.NotNil(t, store.finalized)
	assert.Equal(t, models.OperationStatusCompleted, store.finalized.status)
	assert.Equal(t, 3, store.finalized.successCount)
}

func TestExemptionServiceExecutePartialOnDuplicate(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{
		summary("emp-1", "Agus Salim"),
		summary("emp-2", "Budi Santoso"),
		summary("emp-3", "Citra Dewi"),
	}}
	store := newMockExemptionStore()
	store.duplicates["emp-2"] = true
	svc := newTestExemptionService(population, store, newMockTemplateStore(), true)

	outcome, err := svc.Execute(context.Background(), executeRequest(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.ErrorCount)
	assert.Equal(t, outcome.TotalCount, outcome.SuccessCount+outcome.ErrorCount)
	assert.Equal(t, models.OperationStatusPartial, outcome.Operation.Status)

	require.Len(t, store.results, 3)
	var failed *models.MassExemptionResult
	for i := range store.results {
		if !store.results[i].Success {
			failed = &store.results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "emp-2", failed.EmployeeID)
	assert.Equal(t, "duplicate active exemption", failed.ErrorMessage)
	assert.Nil(t, failed.ExemptionID)
}

func TestExemptionServiceExecuteCancelledKeepsPartialResults(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{
		summary("emp-1", "Agus Salim"),
		summary("emp-2", "Budi Santoso"),
		summary("emp-3", "Citra Dewi"),
	}}
	store := newMockExemptionStore()
	svc := newTestExemptionService(population, store, newMockTemplateStore(), true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.onCreate = func(*models.Exemption) { cancel() }

	outcome, err := svc.Execute(ctx, executeRequest(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, models.OperationStatusCancelled, outcome.Operation.Status)
	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.ErrorCount)
	assert.Equal(t, 3, outcome.TotalCount)
	assert.Equal(t, 3, outcome.Operation.EmployeesAffected)

	// Rows written before cancellation survive, and the operation is
	// still finalized.
	assert.Len(t, store.results, 1)
	require.NotNil(t, store.finalized)
	assert.Equal(t, models.OperationStatusCancelled, store.finalized.status)
	assert.Equal(t, 1, store.finalized.successCount)
}

func TestExemptionServiceExecuteCancelledPersistsInFlightResultRow(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{
		summary("emp-1", "Agus Salim"),
		summary("emp-2", "Budi Santoso"),
	}}
	store := newMockExemptionStore()
	svc := newTestExemptionService(population, store, newMockTemplateStore(), true)

	// Cancellation lands while the first grant is in flight: the grant
	// succeeds, so its result row must still be written afterwards.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.onCreate = func(*models.Exemption) { cancel() }

	outcome, err := svc.Execute(ctx, executeRequest(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.ErrorCount)

	// Every counted success has a persisted result row.
	require.Len(t, store.results, outcome.SuccessCount)
	assert.Equal(t, "emp-1", store.results[0].EmployeeID)
	assert.True(t, store.results[0].Success)
	require.NotNil(t, store.results[0].ExemptionID)
}

func TestExemptionServiceExecuteValidation(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)
	ctx := context.Background()

	req := executeRequest()
	req.Reason = ""
	_, err := svc.Execute(ctx, req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = executeRequest()
	req.Type = models.ExemptionTemporary
	_, err = svc.Execute(ctx, req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = executeRequest()
	req.EffectiveAt = time.Now()
	expired := req.EffectiveAt.Add(-time.Hour)
	req.ExpiresAt = &expired
	_, err = svc.Execute(ctx, req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = executeRequest()
	req.Criteria = models.ExemptionCriteria{LicenseID: "forklift"}
	_, err = svc.Execute(ctx, req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyCriteria.Code, appErrors.FromError(err).Code)
}

func TestExemptionServiceExecuteSavesTemplate(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{summary("emp-1", "Agus Salim")}}
	templates := newMockTemplateStore()
	svc := newTestExemptionService(population, newMockExemptionStore(), templates, true)

	req := executeRequest()
	req.SaveTemplate = true
	req.TemplateName = "operations veterans"
	_, err := svc.Execute(context.Background(), req, "admin-1")
	require.NoError(t, err)

	require.Len(t, templates.templates, 1)
	for _, template := range templates.templates {
		assert.Equal(t, "operations veterans", template.Name)
		assert.Equal(t, "forklift", template.LicenseID)
		assert.Equal(t, 1, template.UsageCount)
		assert.Equal(t, "admin-1", template.CreatedBy)

		var criteria models.ExemptionCriteria
		require.NoError(t, json.Unmarshal(template.Criteria, &criteria))
		assert.Equal(t, []string{"OPERATIONS"}, criteria.Departments)
	}
}

func TestExemptionServiceExecuteSaveTemplateRequiresName(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)

	req := executeRequest()
	req.SaveTemplate = true
	_, err := svc.Execute(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExemptionServiceExecuteIncrementsTemplateUsage(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{summary("emp-1", "Agus Salim")}}
	templates := newMockTemplateStore()
	templates.templates["tpl-1"] = &models.ExemptionTemplate{ID: "tpl-1", Name: "operations veterans"}
	svc := newTestExemptionService(population, newMockExemptionStore(), templates, true)

	req := executeRequest()
	req.TemplateID = "tpl-1"
	_, err := svc.Execute(context.Background(), req, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, templates.usage["tpl-1"])

	req.TemplateID = "missing"
	_, err = svc.Execute(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExemptionServiceActiveExemptionNone(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)

	exemption, err := svc.ActiveExemption(context.Background(), "emp-1", "forklift")
	require.NoError(t, err)
	assert.Nil(t, exemption)
}

func TestExemptionServiceGetOperationWithResults(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{summary("emp-1", "Agus Salim")}}
	store := newMockExemptionStore()
	svc := newTestExemptionService(population, store, newMockTemplateStore(), true)

	outcome, err := svc.Execute(context.Background(), executeRequest(), "admin-1")
	require.NoError(t, err)

	detail, err := svc.GetOperation(context.Background(), outcome.Operation.ID)
	require.NoError(t, err)
	assert.Equal(t, outcome.Operation.ID, detail.Operation.ID)
	require.Len(t, detail.Results, 1)
	assert.Equal(t, "emp-1", detail.Results[0].EmployeeID)
}

func TestExemptionServiceCreateRuleValidation(t *testing.T) {
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), newMockTemplateStore(), true)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, dto.SaveRuleRequest{
		Name:   "tenure rule",
		Type:   models.ExemptionTemporary,
		Reason: "long service",
		Criteria: models.ExemptionCriteria{
			LicenseID:   "forklift",
			Departments: []string{"OPERATIONS"},
		},
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateRule(ctx, dto.SaveRuleRequest{
		Name:     "tenure rule",
		Type:     models.ExemptionPermanent,
		Reason:   "long service",
		Criteria: models.ExemptionCriteria{LicenseID: "forklift"},
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyCriteria.Code, appErrors.FromError(err).Code)
}

func TestExemptionServiceRunRule(t *testing.T) {
	population := &mockPopulation{summaries: []models.EmployeeSummary{
		summary("emp-1", "Agus Salim"),
		summary("emp-2", "Budi Santoso"),
	}}
	store := newMockExemptionStore()
	templates := newMockTemplateStore()

	minYears := 10.0
	criteria, err := json.Marshal(models.ExemptionCriteria{MinServiceYears: &minYears})
	require.NoError(t, err)
	expiresAfter := 30
	templates.rules["rule-1"] = &models.AutoExemptionRule{
		ID:               "rule-1",
		Name:             "decade of service",
		LicenseID:        "forklift",
		Criteria:         criteria,
		Type:             models.ExemptionTemporary,
		Reason:           "ten years of service",
		ExpiresAfterDays: &expiresAfter,
		Enabled:          true,
	}

	svc := newTestExemptionService(population, store, templates, true)

	outcome, err := svc.RunRule(context.Background(), "rule-1", "scheduler")
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, models.OperationStatusCompleted, outcome.Operation.Status)

	// The rule's license is enforced and already-exempt employees are
	// always skipped so re-runs stay idempotent.
	assert.Equal(t, "forklift", population.lastCriteria.LicenseID)
	assert.True(t, population.lastCriteria.ExcludeExistingFor)

	require.Len(t, store.created, 2)
	for _, grant := range store.created {
		assert.Equal(t, models.ExemptionTemporary, grant.Type)
		require.NotNil(t, grant.ExpiresAt)
		assert.WithinDuration(t, grant.EffectiveAt.AddDate(0, 0, 30), *grant.ExpiresAt, time.Second)
		assert.Equal(t, "auto-exemption rule: decade of service", grant.Justification)
	}
}

func TestExemptionServiceRunRuleDisabled(t *testing.T) {
	templates := newMockTemplateStore()
	templates.rules["rule-1"] = &models.AutoExemptionRule{ID: "rule-1", Name: "off", LicenseID: "forklift", Criteria: []byte(`{}`), Enabled: false}
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), templates, true)

	_, err := svc.RunRule(context.Background(), "rule-1", "scheduler")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestExemptionServiceEnqueueRuleRunWithoutQueue(t *testing.T) {
	templates := newMockTemplateStore()
	templates.rules["rule-1"] = &models.AutoExemptionRule{ID: "rule-1", Name: "on", LicenseID: "forklift", Criteria: []byte(`{}`), Enabled: true}
	svc := newTestExemptionService(&mockPopulation{}, newMockExemptionStore(), templates, true)

	err := svc.EnqueueRuleRun(context.Background(), "rule-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
