package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noventis/certtrack-api/internal/models"
)

func newEmployeeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEmployeeRepositoryList(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "department", "contract_type", "location_id", "job_title", "hired_at", "active", "created_at", "updated_at"}).
		AddRow("emp-1", "Alex Carter", "OPERATIONS", "PERMANENT", "loc-1", "Operator", time.Now(), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, department, contract_type, location_id, job_title, hired_at, active, created_at, updated_at FROM employees WHERE 1=1 AND department = $1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("OPERATIONS").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1 AND department = $1")).
		WithArgs("OPERATIONS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	employees, total, err := repo.List(context.Background(), models.EmployeeFilter{Department: "OPERATIONS"})
	require.NoError(t, err)
	assert.Len(t, employees, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryQueryByCriteria(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	minYears := 2.0
	criteria := models.ExemptionCriteria{
		LicenseID:          "lic-1",
		Departments:        []string{"OPERATIONS"},
		MinServiceYears:    &minYears,
		ExcludeExistingFor: true,
	}

	hiredA := now.AddDate(-5, 0, 0)
	hiredB := now.AddDate(-3, 0, 0)
	rows := sqlmock.NewRows([]string{"id", "full_name", "department", "contract_type", "location_id", "job_title", "hired_at"}).
		AddRow("emp-1", "Alex Carter", "OPERATIONS", "PERMANENT", "loc-1", "Operator", hiredA).
		AddRow("emp-2", "Dana Reyes", "OPERATIONS", "FIXED_TERM", "loc-2", "Technician", hiredB)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.full_name, e.department, e.contract_type, e.location_id, e.job_title, e.hired_at FROM employees e WHERE e.active = TRUE AND e.department IN ($1) AND e.hired_at <= $2 AND NOT EXISTS (SELECT 1 FROM exemptions x WHERE x.employee_id = e.id AND x.license_id = $3 AND x.status = $4 AND x.effective_at <= $5 AND (x.expires_at IS NULL OR x.expires_at > $6)) ORDER BY e.id")).
		WithArgs("OPERATIONS", serviceYearsCutoff(now, minYears), "lic-1", models.ExemptionStatusApproved, now, now).
		WillReturnRows(rows)

	summaries, err := repo.QueryByCriteria(context.Background(), criteria, now, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "emp-1", summaries[0].ID)
	assert.Equal(t, "emp-2", summaries[1].ID)
	assert.InDelta(t, 5.0, summaries[0].ServiceYears, 0.05)
	assert.InDelta(t, 3.0, summaries[1].ServiceYears, 0.05)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryQueryByCriteriaLimit(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	criteria := models.ExemptionCriteria{Departments: []string{"WAREHOUSE"}}

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees e WHERE e.active = TRUE AND e.department IN ($1) ORDER BY e.id LIMIT 50")).
		WithArgs("WAREHOUSE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "department", "contract_type", "location_id", "job_title", "hired_at"}))

	summaries, err := repo.QueryByCriteria(context.Background(), criteria, now, 50)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceYears(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 4.0, serviceYears(now.AddDate(-4, 0, 0), now), 0.02)
	assert.Zero(t, serviceYears(now.AddDate(1, 0, 0), now))

	cutoff := serviceYearsCutoff(now, 2)
	assert.InDelta(t, 2.0, serviceYears(cutoff, now), 0.001)
}
