package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/testutil"
)

func newAuthService(t *testing.T) (*AuthService, *domain.User) {
	t.Helper()

	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	users := testutil.NewMockUserRepository()
	users.AddUser(user)

	return NewAuthService(users, []byte("test-secret"), time.Hour), user
}

func TestLogin_Success(t *testing.T) {
	service, user := newAuthService(t)

	token, got, err := service.Login("admin@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, _ := newAuthService(t)

	token, user, err := service.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestLogin_UnknownEmail(t *testing.T) {
	service, _ := newAuthService(t)

	// Unknown email and wrong password must be indistinguishable
	_, _, err := service.Login("nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	service, user := newAuthService(t)

	token, _, err := service.Login("admin@example.com", "s3cret-pass")
	require.NoError(t, err)

	userID, role, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestValidateToken_Garbage(t *testing.T) {
	service, _ := newAuthService(t)

	_, _, err := service.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service, _ := newAuthService(t)
	other := NewAuthService(testutil.NewMockUserRepository(), []byte("other-secret"), time.Hour)

	token, _, err := service.Login("admin@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetUser(t *testing.T) {
	service, user := newAuthService(t)

	got, err := service.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = service.GetUser(uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
