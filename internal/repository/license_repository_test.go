package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noventis/certtrack-api/internal/models"
)

func newLicenseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLicenseRepositoryList(t *testing.T) {
	db, mock, cleanup := newLicenseMock(t)
	defer cleanup()
	repo := NewLicenseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "category", "level", "level_description", "created_at", "updated_at"}).
		AddRow("lic-1", "Forklift Operation", "EQUIPMENT", 2, "Advanced", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, category, level, level_description, created_at, updated_at FROM licenses WHERE 1=1 AND category = $1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("EQUIPMENT").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM licenses WHERE 1=1 AND category = $1")).
		WithArgs("EQUIPMENT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	licenses, total, err := repo.List(context.Background(), models.LicenseFilter{Category: "EQUIPMENT"})
	require.NoError(t, err)
	assert.Len(t, licenses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseRepositoryCreateAppliesDefaults(t *testing.T) {
	db, mock, cleanup := newLicenseMock(t)
	defer cleanup()
	repo := NewLicenseRepository(db)

	mock.ExpectExec("INSERT INTO licenses").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	license := &models.License{Name: "First Aid", Category: "SAFETY"}
	require.NoError(t, repo.Create(context.Background(), license))
	assert.NotEmpty(t, license.ID)
	assert.Equal(t, 1, license.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newLicenseMock(t)
	defer cleanup()
	repo := NewLicenseRepository(db)

	mock.ExpectQuery("SELECT id, name, category").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseRepositoryIsReferenced(t *testing.T) {
	db, mock, cleanup := newLicenseMock(t)
	defer cleanup()
	repo := NewLicenseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM employee_licenses WHERE license_id = $1 LIMIT 1")).
		WithArgs("lic-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	referenced, err := repo.IsReferenced(context.Background(), "lic-1")
	require.NoError(t, err)
	assert.True(t, referenced)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM employee_licenses WHERE license_id = $1 LIMIT 1")).
		WithArgs("lic-2").
		WillReturnError(sql.ErrNoRows)

	referenced, err = repo.IsReferenced(context.Background(), "lic-2")
	require.NoError(t, err)
	assert.False(t, referenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}
