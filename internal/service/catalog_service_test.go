package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noventis/certtrack-api/internal/models"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
)

type mockLicenseRepo struct {
	licenses map[string]models.License
	deleted  []string
	refd     map[string]bool
}

func newMockLicenseRepo(licenses ...models.License) *mockLicenseRepo {
	repo := &mockLicenseRepo{licenses: map[string]models.License{}, refd: map[string]bool{}}
	for _, l := range licenses {
		repo.licenses[l.ID] = l
	}
	return repo
}

func (m *mockLicenseRepo) List(_ context.Context, _ models.LicenseFilter) ([]models.License, int, error) {
	all, _ := m.ListAll(context.Background())
	return all, len(all), nil
}

func (m *mockLicenseRepo) ListAll(_ context.Context) ([]models.License, error) {
	all := make([]models.License, 0, len(m.licenses))
	for _, l := range m.licenses {
		all = append(all, l)
	}
	return all, nil
}

func (m *mockLicenseRepo) FindByID(_ context.Context, id string) (*models.License, error) {
	license, ok := m.licenses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &license, nil
}

func (m *mockLicenseRepo) Create(_ context.Context, license *models.License) error {
	if license.ID == "" {
		license.ID = uuid.NewString()
	}
	if license.Level < 1 {
		license.Level = 1
	}
	m.licenses[license.ID] = *license
	return nil
}

func (m *mockLicenseRepo) Update(_ context.Context, license *models.License) error {
	if _, ok := m.licenses[license.ID]; !ok {
		return sql.ErrNoRows
	}
	m.licenses[license.ID] = *license
	return nil
}

func (m *mockLicenseRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.licenses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.licenses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockLicenseRepo) IsReferenced(_ context.Context, id string) (bool, error) {
	return m.refd[id], nil
}

type mockPrerequisiteRepo struct {
	edges []models.PrerequisiteEdge
}

func (m *mockPrerequisiteRepo) ListAll(_ context.Context) ([]models.PrerequisiteEdge, error) {
	return m.edges, nil
}

func (m *mockPrerequisiteRepo) ListForLicense(_ context.Context, licenseID string) ([]models.PrerequisiteEdge, error) {
	var edges []models.PrerequisiteEdge
	for _, edge := range m.edges {
		if edge.LicenseID == licenseID {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

func (m *mockPrerequisiteRepo) Create(_ context.Context, edge *models.PrerequisiteEdge) error {
	m.edges = append(m.edges, *edge)
	return nil
}

func (m *mockPrerequisiteRepo) Delete(_ context.Context, licenseID, prerequisiteID string) error {
	for i, edge := range m.edges {
		if edge.LicenseID == licenseID && edge.PrerequisiteID == prerequisiteID {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func newTestCatalogService(licenses *mockLicenseRepo, prerequisites *mockPrerequisiteRepo) *CatalogService {
	return NewCatalogService(licenses, prerequisites, nil, nil, nil, 0)
}

func TestCatalogServiceGetNotFound(t *testing.T) {
	svc := newTestCatalogService(newMockLicenseRepo(), &mockPrerequisiteRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateValidatesPayload(t *testing.T) {
	svc := newTestCatalogService(newMockLicenseRepo(), &mockPrerequisiteRepo{})

	_, err := svc.Create(context.Background(), CreateLicenseRequest{Category: "SAFETY"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateAndUpdate(t *testing.T) {
	repo := newMockLicenseRepo()
	svc := newTestCatalogService(repo, &mockPrerequisiteRepo{})

	created, err := svc.Create(context.Background(), CreateLicenseRequest{Name: "Forklift", Category: "EQUIPMENT", Level: 2})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := svc.Update(context.Background(), created.ID, UpdateLicenseRequest{Name: "Forklift Operator", Category: "EQUIPMENT"})
	require.NoError(t, err)
	assert.Equal(t, "Forklift Operator", updated.Name)
	assert.Equal(t, 1, updated.Level)
}

func TestCatalogServiceDeleteReferencedConflicts(t *testing.T) {
	repo := newMockLicenseRepo(models.License{ID: "forklift", Name: "Forklift", Level: 1})
	repo.refd["forklift"] = true
	svc := newTestCatalogService(repo, &mockPrerequisiteRepo{})

	err := svc.Delete(context.Background(), "forklift")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestCatalogServiceAddPrerequisite(t *testing.T) {
	repo := newMockLicenseRepo(
		models.License{ID: "forklift", Level: 2},
		models.License{ID: "basic-safety", Level: 1},
	)
	prereqs := &mockPrerequisiteRepo{}
	svc := newTestCatalogService(repo, prereqs)

	edge, err := svc.AddPrerequisite(context.Background(), "forklift", AddPrerequisiteRequest{PrerequisiteID: "basic-safety"})
	require.NoError(t, err)
	assert.Equal(t, "forklift", edge.LicenseID)
	assert.Equal(t, "basic-safety", edge.PrerequisiteID)
	require.Len(t, prereqs.edges, 1)
}

func TestCatalogServiceAddPrerequisiteRejectsSelfLoop(t *testing.T) {
	repo := newMockLicenseRepo(models.License{ID: "forklift", Level: 2})
	svc := newTestCatalogService(repo, &mockPrerequisiteRepo{})

	_, err := svc.AddPrerequisite(context.Background(), "forklift", AddPrerequisiteRequest{PrerequisiteID: "forklift"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrerequisiteCycle.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceAddPrerequisiteRejectsCycle(t *testing.T) {
	repo := newMockLicenseRepo(
		models.License{ID: "a", Level: 1},
		models.License{ID: "b", Level: 1},
		models.License{ID: "c", Level: 1},
	)
	prereqs := &mockPrerequisiteRepo{edges: []models.PrerequisiteEdge{
		{LicenseID: "b", PrerequisiteID: "a"},
		{LicenseID: "c", PrerequisiteID: "b"},
	}}
	svc := newTestCatalogService(repo, prereqs)

	// a -> c would close a <- b <- c.
	_, err := svc.AddPrerequisite(context.Background(), "a", AddPrerequisiteRequest{PrerequisiteID: "c"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrerequisiteCycle.Code, appErrors.FromError(err).Code)
	assert.Len(t, prereqs.edges, 2)
}

func TestCatalogServiceAddPrerequisiteDuplicateConflicts(t *testing.T) {
	repo := newMockLicenseRepo(
		models.License{ID: "forklift", Level: 2},
		models.License{ID: "basic-safety", Level: 1},
	)
	prereqs := &mockPrerequisiteRepo{edges: []models.PrerequisiteEdge{
		{LicenseID: "forklift", PrerequisiteID: "basic-safety"},
	}}
	svc := newTestCatalogService(repo, prereqs)

	_, err := svc.AddPrerequisite(context.Background(), "forklift", AddPrerequisiteRequest{PrerequisiteID: "basic-safety"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceAddPrerequisiteUnknownLicense(t *testing.T) {
	repo := newMockLicenseRepo(models.License{ID: "forklift", Level: 2})
	svc := newTestCatalogService(repo, &mockPrerequisiteRepo{})

	_, err := svc.AddPrerequisite(context.Background(), "forklift", AddPrerequisiteRequest{PrerequisiteID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceRemovePrerequisiteMissingEdge(t *testing.T) {
	svc := newTestCatalogService(newMockLicenseRepo(), &mockPrerequisiteRepo{})

	err := svc.RemovePrerequisite(context.Background(), "forklift", "basic-safety")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceGraph(t *testing.T) {
	prereqs := &mockPrerequisiteRepo{edges: []models.PrerequisiteEdge{
		{LicenseID: "forklift", PrerequisiteID: "basic-safety"},
		{LicenseID: "forklift", PrerequisiteID: "first-aid"},
		{LicenseID: "crane", PrerequisiteID: "forklift"},
	}}
	svc := newTestCatalogService(newMockLicenseRepo(), prereqs)

	graph, err := svc.Graph(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"basic-safety", "first-aid"}, graph.PrerequisitesOf("forklift"))
	assert.Equal(t, []string{"forklift"}, graph.PrerequisitesOf("crane"))
	assert.Empty(t, graph.PrerequisitesOf("basic-safety"))
}
