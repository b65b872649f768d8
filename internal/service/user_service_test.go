package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noventis/certtrack-api/internal/models"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
)

type mockUserStore struct {
	users   map[string]models.User
	deleted []string
	audits  []models.AuditLog
}

func newMockUserStore(users ...models.User) *mockUserStore {
	m := &mockUserStore{users: map[string]models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (m *mockUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (m *mockUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) Create(_ context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStore) Update(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserStore) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(newMockUserStore(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreate(t *testing.T) {
	store := newMockUserStore()
	svc := NewUserService(store, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Rina.Wulandari@noventis.example",
		FullName: "Rina Wulandari",
		Role:     models.RoleComplianceOfficer,
		Active:   true,
		Password: "s3cret-pass",
	}, "admin-1", models.LoginRequest{IP: "10.0.0.5", UserAgent: "test"})
	require.NoError(t, err)

	assert.Equal(t, "rina.wulandari@noventis.example", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))

	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditActionUserCreate, store.audits[0].Action)
	require.NotNil(t, store.audits[0].UserID)
	assert.Equal(t, "admin-1", *store.audits[0].UserID)
	assert.Equal(t, "10.0.0.5", store.audits[0].IPAddress)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	store := newMockUserStore(models.User{ID: "u-1", Email: "rina@noventis.example"})
	svc := NewUserService(store, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "RINA@noventis.example",
		FullName: "Rina Wulandari",
		Role:     models.RoleViewer,
		Password: "s3cret-pass",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.audits)
}

func TestUserServiceUpdate(t *testing.T) {
	inactive := false
	store := newMockUserStore(models.User{
		ID: "u-1", Email: "rina@noventis.example", FullName: "Rina Wulandari",
		Role: models.RoleComplianceOfficer, Active: true,
	})
	svc := NewUserService(store, nil, nil)

	user, err := svc.Update(context.Background(), "u-1", UpdateUserRequest{
		FullName: "Rina Wulandari",
		Role:     models.RoleViewer,
		Active:   &inactive,
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.RoleViewer, user.Role)
	assert.False(t, user.Active)
	assert.Equal(t, models.RoleViewer, store.users["u-1"].Role)

	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditActionUserUpdate, store.audits[0].Action)
	assert.JSONEq(t, `{"role":"COMPLIANCE_OFFICER","active":true}`, string(store.audits[0].OldValues))
	assert.JSONEq(t, `{"role":"VIEWER","active":false}`, string(store.audits[0].NewValues))
}

func TestUserServiceDelete(t *testing.T) {
	store := newMockUserStore(models.User{ID: "u-1", Email: "rina@noventis.example", Active: true})
	svc := NewUserService(store, nil, nil)

	err := svc.Delete(context.Background(), "u-1", "admin-1", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{"u-1"}, store.deleted)
	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditActionUserDelete, store.audits[0].Action)
}

func TestUserServiceDeleteOwnAccount(t *testing.T) {
	store := newMockUserStore(models.User{ID: "admin-1", Email: "admin@noventis.example", Active: true})
	svc := NewUserService(store, nil, nil)

	err := svc.Delete(context.Background(), "admin-1", "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)
}
