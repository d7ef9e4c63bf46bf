package auth

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkboard/inkboard/backend-go/internal/store"
)

type memoryUsers struct {
	byID    map[string]store.User
	byEmail map[string]store.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		byID:    make(map[string]store.User),
		byEmail: make(map[string]store.User),
	}
}

func (m *memoryUsers) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	if _, taken := m.byEmail[arg.Email]; taken {
		return store.User{}, &pgconn.PgError{Code: "23505"}
	}
	u := store.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, DisplayName: arg.DisplayName}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return store.User{}, store.ErrNoRows
	}
	return u, nil
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (store.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return store.User{}, store.ErrNoRows
	}
	return u, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemoryUsers(), "test-secret")
	ctx := context.Background()

	reg, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "Ada", reg.User.DisplayName)

	login, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryUsers(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "password1", "Ada")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ada@example.com", "password2", "Imposter")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newMemoryUsers(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	svc := NewService(newMemoryUsers(), "test-secret")
	ctx := context.Background()

	reg, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	userID, err := svc.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)

	// Token signed with a different secret must be rejected.
	other := NewService(newMemoryUsers(), "other-secret")
	_, err = other.ValidateToken(reg.Token)
	assert.Error(t, err)
}
