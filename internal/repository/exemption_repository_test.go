package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noventis/certtrack-api/internal/models"
)

func newExemptionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExemptionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newExemptionMock(t)
	defer cleanup()
	repo := NewExemptionRepository(db)

	mock.ExpectExec("INSERT INTO exemptions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	exemption := &models.Exemption{
		EmployeeID:  "emp-1",
		LicenseID:   "lic-1",
		Type:        models.ExemptionTemporary,
		Reason:      "Grandfathered under prior policy",
		EffectiveAt: time.Now(),
		GrantedBy:   "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), exemption))
	assert.NotEmpty(t, exemption.ID)
	assert.Equal(t, models.ExemptionStatusApproved, exemption.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExemptionRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newExemptionMock(t)
	defer cleanup()
	repo := NewExemptionRepository(db)

	mock.ExpectExec("INSERT INTO exemptions").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Exemption{
		EmployeeID:  "emp-1",
		LicenseID:   "lic-1",
		Type:        models.ExemptionPermanent,
		Reason:      "Already exempt",
		EffectiveAt: time.Now(),
		GrantedBy:   "user-1",
	})
	assert.ErrorIs(t, err, ErrDuplicateExemption)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExemptionRepositoryFindActiveNotFound(t *testing.T) {
	db, mock, cleanup := newExemptionMock(t)
	defer cleanup()
	repo := NewExemptionRepository(db)

	mock.ExpectQuery("SELECT id, employee_id, license_id").
		WithArgs("emp-1", "lic-1", models.ExemptionStatusApproved, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "emp-1", "lic-1", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExemptionRepositoryFinalizeOperation(t *testing.T) {
	db, mock, cleanup := newExemptionMock(t)
	defer cleanup()
	repo := NewExemptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mass_exemption_operations SET success_count = $2, error_count = $3, status = $4 WHERE id = $1")).
		WithArgs("op-1", 8, 2, models.OperationStatusPartial).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.FinalizeOperation(context.Background(), "op-1", 8, 2, models.OperationStatusPartial)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExemptionRepositoryListResults(t *testing.T) {
	db, mock, cleanup := newExemptionMock(t)
	defer cleanup()
	repo := NewExemptionRepository(db)

	exemptionID := "ex-1"
	rows := sqlmock.NewRows([]string{"id", "operation_id", "employee_id", "employee_name", "success", "error_message", "exemption_id", "created_at"}).
		AddRow("res-1", "op-1", "emp-1", "Alex Carter", true, "", exemptionID, time.Now()).
		AddRow("res-2", "op-1", "emp-2", "Dana Reyes", false, "duplicate active exemption", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM mass_exemption_results WHERE operation_id = $1 ORDER BY employee_id")).
		WithArgs("op-1").
		WillReturnRows(rows)

	results, err := repo.ListResults(context.Background(), "op-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "duplicate active exemption", results[1].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
