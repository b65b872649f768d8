package service

import (
	"context"
	"database/sql"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noventis/certtrack-api/internal/dto"
	"github.com/noventis/certtrack-api/internal/models"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
)

type ledgerSource interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]models.EmployeeLicense, error)
}

type employeeSource interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

// DefaultMaxTrainingLevel caps level suggestions when no configured
// maximum is provided.
const DefaultMaxTrainingLevel = 5

// HeldLevel returns the highest achieved level across valid ledger entries
// for the license, or 0 when nothing is held. Historical duplicates are
// expected; the maximum wins.
func HeldLevel(ledger []models.EmployeeLicense, licenseID string) int {
	level := 0
	for _, entry := range ledger {
		if entry.LicenseID != licenseID || !entry.Held() {
			continue
		}
		if entry.EffectiveLevel() > level {
			level = entry.EffectiveLevel()
		}
	}
	return level
}

// holdsValid reports whether any valid ledger entry exists for the license.
func holdsValid(ledger []models.EmployeeLicense, licenseID string) bool {
	for _, entry := range ledger {
		if entry.LicenseID == licenseID && entry.Held() {
			return true
		}
	}
	return false
}

// DecideEnrollment evaluates whether a course targeting the given license
// level may be enrolled in. Progression is single-step: a target more than
// one level above the current level is rejected regardless of
// prerequisites. The decision is pure over its inputs.
func DecideEnrollment(targetLevel int, license *models.License, ledger []models.EmployeeLicense, graph models.PrerequisiteGraph) (models.EnrollmentDecision, error) {
	if targetLevel <= 0 {
		return models.EnrollmentDecision{}, appErrors.Clone(appErrors.ErrValidation, "target level must be positive")
	}

	// A level-1 target or a course without a resolvable license is not
	// level-gated.
	if targetLevel == 1 || license == nil {
		current := 0
		if license != nil {
			current = HeldLevel(ledger, license.ID)
		}
		decision := models.EnrollmentDecision{
			Eligible:         true,
			Reason:           models.ReasonNoLevelRequirement,
			CurrentLevel:     current,
			TargetLevel:      targetLevel,
			RecommendedLevel: targetLevel,
		}
		if current >= targetLevel {
			decision.Reason = models.ReasonAlreadyQualified
			decision.RecommendedLevel = current
		}
		return decision, nil
	}

	currentLevel := HeldLevel(ledger, license.ID)

	if currentLevel >= targetLevel {
		return models.EnrollmentDecision{
			Eligible:         true,
			Reason:           models.ReasonAlreadyQualified,
			CurrentLevel:     currentLevel,
			TargetLevel:      targetLevel,
			RecommendedLevel: currentLevel,
		}, nil
	}

	if targetLevel > currentLevel+1 {
		return models.EnrollmentDecision{
			Eligible:         false,
			Reason:           models.ReasonLevelSkipForbidden,
			CurrentLevel:     currentLevel,
			TargetLevel:      targetLevel,
			RecommendedLevel: currentLevel + 1,
		}, nil
	}

	// The normal single-step progression: every prerequisite must be held
	// as a valid ledger entry.
	var missing []string
	for _, prerequisiteID := range graph.PrerequisitesOf(license.ID) {
		if !holdsValid(ledger, prerequisiteID) {
			missing = append(missing, prerequisiteID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return models.EnrollmentDecision{
			Eligible:             false,
			Reason:               models.ReasonMissingPrerequisites,
			CurrentLevel:         currentLevel,
			TargetLevel:          targetLevel,
			RecommendedLevel:     targetLevel,
			MissingPrerequisites: missing,
		}, nil
	}

	return models.EnrollmentDecision{
		Eligible:         true,
		Reason:           models.ReasonProgressionStep,
		CurrentLevel:     currentLevel,
		TargetLevel:      targetLevel,
		RecommendedLevel: targetLevel,
	}, nil
}

// DecideRenewal evaluates whether a ledger entry can be renewed at its
// current level. Boundary equality with the renewal floor is eligible.
func DecideRenewal(entry models.EmployeeLicense) models.RenewalDecision {
	currentLevel := entry.EffectiveLevel()
	floor := entry.RenewalFloor()
	if currentLevel >= floor {
		return models.RenewalDecision{
			CanRenew:     true,
			CurrentLevel: currentLevel,
			RenewalFloor: floor,
		}
	}
	return models.RenewalDecision{
		CanRenew:       false,
		CurrentLevel:   currentLevel,
		RenewalFloor:   floor,
		NeedsRetrain:   true,
		RetrainAtLevel: floor,
	}
}

// SuggestNextLevel returns the next training level to recommend:
// min(highest held level + 1, maxLevel), or 1 when nothing is held.
func SuggestNextLevel(ledger []models.EmployeeLicense, licenseID string, maxLevel int) int {
	if maxLevel < 1 {
		maxLevel = DefaultMaxTrainingLevel
	}
	current := HeldLevel(ledger, licenseID)
	if current == 0 {
		return 1
	}
	next := current + 1
	if next > maxLevel {
		return maxLevel
	}
	return next
}

// AvailableTrainingLevels returns the deduplicated ascending set of levels
// the employee may train at: level 1 when nothing is held, the next
// progression step below max, and the current level itself when the
// renewal floor permits same-level renewal.
func AvailableTrainingLevels(ledger []models.EmployeeLicense, licenseID string, maxLevel int) []int {
	if maxLevel < 1 {
		maxLevel = DefaultMaxTrainingLevel
	}
	current := HeldLevel(ledger, licenseID)
	if current == 0 {
		return []int{1}
	}

	set := map[int]bool{}
	if current+1 <= maxLevel {
		set[current+1] = true
	}
	for _, entry := range ledger {
		if entry.LicenseID != licenseID || !entry.Held() {
			continue
		}
		if entry.EffectiveLevel() == current && DecideRenewal(entry).CanRenew {
			set[current] = true
		}
	}

	levels := make([]int, 0, len(set))
	for level := range set {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// EligibilityService loads ledger and catalog state and delegates to the
// pure decision functions.
type EligibilityService struct {
	catalog   *CatalogService
	ledger    ledgerSource
	employees employeeSource
	validator *validator.Validate
	logger    *zap.Logger
	maxLevel  int
}

// NewEligibilityService constructs the eligibility service.
func NewEligibilityService(catalog *CatalogService, ledger ledgerSource, employees employeeSource, validate *validator.Validate, logger *zap.Logger, maxLevel int) *EligibilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLevel < 1 {
		maxLevel = DefaultMaxTrainingLevel
	}
	return &EligibilityService{
		catalog:   catalog,
		ledger:    ledger,
		employees: employees,
		validator: validate,
		logger:    logger,
		maxLevel:  maxLevel,
	}
}

func (s *EligibilityService) loadContext(ctx context.Context, employeeID, licenseID string) (*models.License, []models.EmployeeLicense, models.PrerequisiteGraph, error) {
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	license, err := s.catalog.Get(ctx, licenseID)
	if err != nil {
		return nil, nil, nil, err
	}
	ledger, err := s.ledger.ListForEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate ledger")
	}
	graph, err := s.catalog.Graph(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	catalog, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	known := make(map[string]bool, len(catalog))
	for _, l := range catalog {
		known[l.ID] = true
	}
	for _, entry := range ledger {
		if !known[entry.LicenseID] {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrValidation, "certificate record references unknown license")
		}
	}
	return license, ledger, graph, nil
}

// CheckEnrollment answers whether the employee may enroll at the target level.
func (s *EligibilityService) CheckEnrollment(ctx context.Context, req dto.EvaluateEnrollmentRequest) (*models.EnrollmentDecision, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment evaluation payload")
	}
	license, ledger, graph, err := s.loadContext(ctx, req.EmployeeID, req.LicenseID)
	if err != nil {
		return nil, err
	}
	decision, err := DecideEnrollment(req.TargetLevel, license, ledger, graph)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// CheckRenewal answers whether the employee's most relevant ledger entry
// for the license can be renewed without retraining.
func (s *EligibilityService) CheckRenewal(ctx context.Context, req dto.EvaluateRenewalRequest) (*models.RenewalDecision, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid renewal evaluation payload")
	}
	_, ledger, _, err := s.loadContext(ctx, req.EmployeeID, req.LicenseID)
	if err != nil {
		return nil, err
	}

	var best *models.EmployeeLicense
	for i := range ledger {
		entry := ledger[i]
		if entry.LicenseID != req.LicenseID || !entry.Held() {
			continue
		}
		if best == nil || entry.EffectiveLevel() > best.EffectiveLevel() {
			best = &ledger[i]
		}
	}
	if best == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no valid certificate record for license")
	}
	decision := DecideRenewal(*best)
	return &decision, nil
}

// TrainingLevels returns suggested and available training levels for the
// employee on one license.
func (s *EligibilityService) TrainingLevels(ctx context.Context, employeeID, licenseID string) (*dto.TrainingLevelsResponse, error) {
	_, ledger, _, err := s.loadContext(ctx, employeeID, licenseID)
	if err != nil {
		return nil, err
	}
	return &dto.TrainingLevelsResponse{
		EmployeeID:      employeeID,
		LicenseID:       licenseID,
		SuggestedLevel:  SuggestNextLevel(ledger, licenseID, s.maxLevel),
		AvailableLevels: AvailableTrainingLevels(ledger, licenseID, s.maxLevel),
	}, nil
}
