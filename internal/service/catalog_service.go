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

const (
	cacheKeyCatalog = "catalog:licenses"
	cacheKeyGraph   = "catalog:prerequisite-graph"
)

type licenseRepository interface {
	List(ctx context.Context, filter models.LicenseFilter) ([]models.License, int, error)
	ListAll(ctx context.Context) ([]models.License, error)
	FindByID(ctx context.Context, id string) (*models.License, error)
	Create(ctx context.Context, license *models.License) error
	Update(ctx context.Context, license *models.License) error
	Delete(ctx context.Context, id string) error
	IsReferenced(ctx context.Context, id string) (bool, error)
}

type prerequisiteRepository interface {
	ListAll(ctx context.Context) ([]models.PrerequisiteEdge, error)
	ListForLicense(ctx context.Context, licenseID string) ([]models.PrerequisiteEdge, error)
	Create(ctx context.Context, edge *models.PrerequisiteEdge) error
	Delete(ctx context.Context, licenseID, prerequisiteID string) error
}

// CreateLicenseRequest holds payload for creating catalog entries.
type CreateLicenseRequest struct {
	Name             string `json:"name" validate:"required"`
	Category         string `json:"category" validate:"required"`
	Level            int    `json:"level" validate:"omitempty,min=1"`
	LevelDescription string `json:"level_description"`
}

// UpdateLicenseRequest holds payload for updating catalog entries.
type UpdateLicenseRequest struct {
	Name             string `json:"name" validate:"required"`
	Category         string `json:"category" validate:"required"`
	Level            int    `json:"level" validate:"omitempty,min=1"`
	LevelDescription string `json:"level_description"`
}

// AddPrerequisiteRequest links a license to a required prerequisite license.
type AddPrerequisiteRequest struct {
	PrerequisiteID string `json:"prerequisite_id" validate:"required"`
}

// CatalogService manages the license catalog and its prerequisite graph.
type CatalogService struct {
	licenses      licenseRepository
	prerequisites prerequisiteRepository
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
	cacheTTL      time.Duration
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(licenses licenseRepository, prerequisites prerequisiteRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		licenses:      licenses,
		prerequisites: prerequisites,
		cache:         cache,
		validator:     validate,
		logger:        logger,
		cacheTTL:      cacheTTL,
	}
}

// List returns catalog entries and pagination metadata.
func (s *CatalogService) List(ctx context.Context, filter models.LicenseFilter) ([]models.License, *models.Pagination, error) {
	licenses, total, err := s.licenses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list licenses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return licenses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListAll returns the full catalog, served from cache when possible.
func (s *CatalogService) ListAll(ctx context.Context) ([]models.License, error) {
	var cached []models.License
	if hit, _ := s.cache.Get(ctx, cacheKeyCatalog, &cached); hit {
		return cached, nil
	}
	licenses, err := s.licenses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}
	if err := s.cache.Set(ctx, cacheKeyCatalog, licenses, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	return licenses, nil
}

// Get returns one catalog entry.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.License, error) {
	license, err := s.licenses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "license not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load license")
	}
	return license, nil
}

// Create registers a new catalog entry.
func (s *CatalogService) Create(ctx context.Context, req CreateLicenseRequest) (*models.License, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid license payload")
	}
	license := &models.License{
		Name:             req.Name,
		Category:         req.Category,
		Level:            req.Level,
		LevelDescription: req.LevelDescription,
	}
	if err := s.licenses.Create(ctx, license); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create license")
	}
	s.invalidateCatalog(ctx)
	return license, nil
}

// Update modifies a catalog entry.
func (s *CatalogService) Update(ctx context.Context, id string, req UpdateLicenseRequest) (*models.License, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid license payload")
	}
	license, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	license.Name = req.Name
	license.Category = req.Category
	license.Level = req.Level
	license.LevelDescription = req.LevelDescription
	if license.Level < 1 {
		license.Level = 1
	}
	if err := s.licenses.Update(ctx, license); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update license")
	}
	s.invalidateCatalog(ctx)
	return license, nil
}

// Delete removes a catalog entry unless historical ledger rows reference it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	referenced, err := s.licenses.IsReferenced(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check license references")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrConflict, "license is referenced by certificate records")
	}
	if err := s.licenses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete license")
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Graph returns the prerequisite adjacency map, served from cache when possible.
func (s *CatalogService) Graph(ctx context.Context) (models.PrerequisiteGraph, error) {
	var cached models.PrerequisiteGraph
	if hit, _ := s.cache.Get(ctx, cacheKeyGraph, &cached); hit {
		return cached, nil
	}
	edges, err := s.prerequisites.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite edges")
	}
	graph := models.BuildPrerequisiteGraph(edges)
	if err := s.cache.Set(ctx, cacheKeyGraph, graph, s.cacheTTL); err != nil {
		s.logger.Warn("graph cache write failed", zap.Error(err))
	}
	return graph, nil
}

// ListPrerequisites returns the direct prerequisites of one license.
func (s *CatalogService) ListPrerequisites(ctx context.Context, licenseID string) ([]models.PrerequisiteEdge, error) {
	if _, err := s.Get(ctx, licenseID); err != nil {
		return nil, err
	}
	edges, err := s.prerequisites.ListForLicense(ctx, licenseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prerequisites")
	}
	return edges, nil
}

// AddPrerequisite creates a prerequisite edge after rejecting self-loops
// and edges that would close a cycle.
func (s *CatalogService) AddPrerequisite(ctx context.Context, licenseID string, req AddPrerequisiteRequest) (*models.PrerequisiteEdge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	if _, err := s.Get(ctx, licenseID); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, req.PrerequisiteID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "prerequisite license not found")
	}

	graph, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	if graph.WouldCycle(licenseID, req.PrerequisiteID) {
		return nil, appErrors.Clone(appErrors.ErrPrerequisiteCycle, "")
	}
	for _, existing := range graph.PrerequisitesOf(licenseID) {
		if existing == req.PrerequisiteID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "prerequisite already exists")
		}
	}

	edge := &models.PrerequisiteEdge{LicenseID: licenseID, PrerequisiteID: req.PrerequisiteID}
	if err := s.prerequisites.Create(ctx, edge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create prerequisite edge")
	}
	s.invalidateCatalog(ctx)
	return edge, nil
}

// RemovePrerequisite deletes a prerequisite edge.
func (s *CatalogService) RemovePrerequisite(ctx context.Context, licenseID, prerequisiteID string) error {
	if err := s.prerequisites.Delete(ctx, licenseID, prerequisiteID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "prerequisite edge not found")
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *CatalogService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "catalog:*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
