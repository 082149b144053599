package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-orders/internal/domain/user"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
	"github.com/xiebiao/bookstore-orders/pkg/jwt"
)

type mockUserService struct {
	user.Service
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, email, password, nickname string) (*user.User, error) {
	args := m.Called(ctx, email, password, nickname)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

type fakeSessions struct {
	saved   map[string]uint
	revoked map[string]time.Duration
	saveErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: map[string]uint{}, revoked: map[string]time.Duration{}}
}

func (f *fakeSessions) SaveSession(_ context.Context, userID uint, jti, _ string, _ time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[jti] = userID
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, _ uint, jti string, ttl time.Duration) error {
	f.revoked[jti] = ttl
	return nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := new(mockUserService)
	svc.On("Register", ctx, "boss@example.com", "secret123", "boss").
		Return(&user.User{ID: 1, Email: "boss@example.com", Nickname: "boss", Role: user.RoleAdmin}, nil)

	info, err := NewRegisterUseCase(svc).Execute(ctx, RegisterRequest{Email: "boss@example.com", Password: "secret123", Nickname: "boss"})
	require.NoError(t, err)
	assert.Equal(t, "admin", info.Role)
}

func TestLogin_SavesSession(t *testing.T) {
	ctx := context.Background()
	svc := new(mockUserService)
	svc.On("Login", ctx, "boss@example.com", "secret123").
		Return(&user.User{ID: 1, Email: "boss@example.com", Role: user.RoleAdmin}, nil)
	manager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	sessions := newFakeSessions()

	resp, err := NewLoginUseCase(svc, manager, sessions, time.Hour).Execute(ctx, LoginRequest{Email: "boss@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := manager.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, uint(1), sessions.saved[claims.ID])
}

func TestLogin_SessionFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	svc := new(mockUserService)
	svc.On("Login", ctx, "a@b.io", "secret123").Return(&user.User{ID: 2, Email: "a@b.io"}, nil)
	sessions := newFakeSessions()
	sessions.saveErr = errors.New("redis down")

	resp, err := NewLoginUseCase(svc, jwt.NewManager("s", time.Hour, time.Hour), sessions, time.Hour).
		Execute(ctx, LoginRequest{Email: "a@b.io", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	svc := new(mockUserService)
	svc.On("Login", ctx, "a@b.io", "bad").Return(nil, apperrors.ErrInvalidPassword)

	_, err := NewLoginUseCase(svc, jwt.NewManager("s", time.Hour, time.Hour), newFakeSessions(), time.Hour).
		Execute(ctx, LoginRequest{Email: "a@b.io", Password: "bad"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestLogout_BlacklistsForRemainingLifetime(t *testing.T) {
	manager := jwt.NewManager("s", time.Hour, time.Hour)
	pair, err := manager.GenerateToken(jwt.Identity{UserID: 5})
	require.NoError(t, err)
	claims, err := manager.ParseToken(pair.AccessToken)
	require.NoError(t, err)

	sessions := newFakeSessions()
	uc := NewLogoutUseCase(sessions)
	uc.now = func() time.Time { return claims.ExpiresAt.Add(-10 * time.Minute) }

	require.NoError(t, uc.Execute(context.Background(), claims))
	assert.Equal(t, 10*time.Minute, sessions.revoked[claims.ID])
}
