package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noventis/certtrack-api/internal/models"
)

const employeeColumns = "id, full_name, department, contract_type, location_id, job_title, hired_at, active, created_at, updated_at"

// EmployeeRepository provides read access to the workforce population.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employees filtered by the provided criteria.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	baseQuery := `FROM employees WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.ContractType != "" {
		conditions = append(conditions, fmt.Sprintf("contract_type = $%d", len(args)+1))
		args = append(args, filter.ContractType)
	}
	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"department": true,
		"hired_at":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", employeeColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}

// FindByID returns an employee by identifier.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE id = $1 LIMIT 1", employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find employee by id: %w", err)
	}
	return &employee, nil
}

// QueryByCriteria matches active employees against exemption criteria.
// All set fields are combined conjunctively; results are ordered by
// employee id so repeated runs walk the population in a stable order.
// The caller must reject empty criteria before reaching this query.
func (r *EmployeeRepository) QueryByCriteria(ctx context.Context, criteria models.ExemptionCriteria, now time.Time, limit int) ([]models.EmployeeSummary, error) {
	baseQuery := `FROM employees e WHERE e.active = TRUE`
	var conditions []string
	var args []interface{}

	if len(criteria.Departments) > 0 {
		placeholders := make([]string, len(criteria.Departments))
		for i, dept := range criteria.Departments {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, dept)
		}
		conditions = append(conditions, fmt.Sprintf("e.department IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(criteria.ContractTypes) > 0 {
		placeholders := make([]string, len(criteria.ContractTypes))
		for i, ct := range criteria.ContractTypes {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, ct)
		}
		conditions = append(conditions, fmt.Sprintf("e.contract_type IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(criteria.LocationIDs) > 0 {
		placeholders := make([]string, len(criteria.LocationIDs))
		for i, loc := range criteria.LocationIDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, loc)
		}
		conditions = append(conditions, fmt.Sprintf("e.location_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if criteria.HiredFrom != nil {
		conditions = append(conditions, fmt.Sprintf("e.hired_at >= $%d", len(args)+1))
		args = append(args, *criteria.HiredFrom)
	}
	if criteria.HiredTo != nil {
		conditions = append(conditions, fmt.Sprintf("e.hired_at <= $%d", len(args)+1))
		args = append(args, *criteria.HiredTo)
	}
	if criteria.MinServiceYears != nil {
		conditions = append(conditions, fmt.Sprintf("e.hired_at <= $%d", len(args)+1))
		args = append(args, serviceYearsCutoff(now, *criteria.MinServiceYears))
	}
	if criteria.MaxServiceYears != nil {
		conditions = append(conditions, fmt.Sprintf("e.hired_at >= $%d", len(args)+1))
		args = append(args, serviceYearsCutoff(now, *criteria.MaxServiceYears))
	}
	if criteria.ExcludeExistingFor && criteria.LicenseID != "" {
		conditions = append(conditions, fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM exemptions x WHERE x.employee_id = e.id AND x.license_id = $%d AND x.status = $%d AND x.effective_at <= $%d AND (x.expires_at IS NULL OR x.expires_at > $%d))`,
			len(args)+1, len(args)+2, len(args)+3, len(args)+4))
		args = append(args, criteria.LicenseID, models.ExemptionStatusApproved, now, now)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT e.id, e.full_name, e.department, e.contract_type, e.location_id, e.job_title, e.hired_at %s ORDER BY e.id", baseQuery)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var summaries []models.EmployeeSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("query employees by criteria: %w", err)
	}

	for i := range summaries {
		summaries[i].ServiceYears = serviceYears(summaries[i].HiredAt, now)
	}

	return summaries, nil
}

const hoursPerYear = 24 * 365.25

func serviceYears(hiredAt, now time.Time) float64 {
	if hiredAt.After(now) {
		return 0
	}
	return now.Sub(hiredAt).Hours() / hoursPerYear
}

func serviceYearsCutoff(now time.Time, years float64) time.Time {
	return now.Add(-time.Duration(years * hoursPerYear * float64(time.Hour)))
}
