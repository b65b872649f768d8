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

func newLedgerMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLedgerRepositoryCreateAppliesDefaults(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec("INSERT INTO employee_licenses").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.EmployeeLicense{
		EmployeeID:    "emp-1",
		LicenseID:     "lic-1",
		LevelAchieved: 3,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.LedgerStatusValid, entry.Status)
	assert.Equal(t, 3, entry.CanRenewFromLevel)
	assert.False(t, entry.AchievedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryListForEmployee(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "employee_id", "license_id", "status", "level_achieved", "can_renew_from_level", "expires_at", "achieved_at", "created_at", "updated_at"}).
		AddRow("el-1", "emp-1", "lic-1", "VALID", 2, 2, nil, time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM employee_licenses WHERE employee_id = $1 ORDER BY achieved_at DESC")).
		WithArgs("emp-1").
		WillReturnRows(rows)

	entries, err := repo.ListForEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerStatusValid, entries[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryUpdateLevels(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employee_licenses SET level_achieved = $2, can_renew_from_level = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("el-1", 4, 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLevels(context.Background(), "el-1", 4, 3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
