package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-api/pkg/jwt"
)

var jwtCfg = auth.JWTConfig{Secret: "secreto", ExpMinutes: 60, Issuer: "stock-api", ResetExpMinutes: 15}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (r *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = map[string]time.Duration{}
	}
	r.revoked[jti] = ttl
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

type capturingMailer struct {
	to, token string
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, to, _ string, token string) error {
	m.to, m.token = to, token
	return nil
}

func seedUser(t *testing.T, store *memory.Store, email, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{Name: "Ana", Email: email, PasswordHash: string(hash), Role: entity.RoleAdmin}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	u := seedUser(t, store, "ana@example.com", "secreto1")
	uc := auth.NewAuthUseCase(store.Users(), jwtCfg, nil, nil)

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := jwt.Parse(jwtCfg.Secret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, entity.RoleAdmin, claims.Role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLogout_RevocaJTI(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedUser(t, store, "ana@example.com", "secreto1")
	revoker := &memRevoker{}
	uc := auth.NewAuthUseCase(store.Users(), jwtCfg, revoker, nil)

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto1"})
	require.NoError(t, err)
	claims, err := jwt.Parse(jwtCfg.Secret, resp.Token)
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, claims))
	revoked, err := uc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Greater(t, revoker.revoked[claims.ID], 59*time.Minute)
}

func TestForgotYResetPassword(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	u := seedUser(t, store, "ana@example.com", "secreto1")
	mailer := &capturingMailer{}
	uc := auth.NewAuthUseCase(store.Users(), jwtCfg, &memRevoker{}, mailer)

	require.NoError(t, uc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "nadie@example.com"}))
	assert.Empty(t, mailer.token, "email desconocido no envía nada")

	require.NoError(t, uc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ana@example.com"}))
	require.NotEmpty(t, mailer.token)
	assert.Equal(t, "ana@example.com", mailer.to)

	require.NoError(t, uc.ResetPassword(ctx, dto.ResetPasswordRequest{Token: mailer.token, NewPassword: "nueva123"}))
	_, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "nueva123"})
	require.NoError(t, err)

	err = uc.ResetPassword(ctx, dto.ResetPasswordRequest{Token: mailer.token, NewPassword: "otra1234"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "el token de recuperación es de un solo uso")

	access, err := jwt.Generate(jwtCfg.Secret, u.ID, u.Email, u.Role, jwtCfg.Issuer, 60)
	require.NoError(t, err)
	err = uc.ResetPassword(ctx, dto.ResetPasswordRequest{Token: access, NewPassword: "otra1234"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "un token de acceso no sirve para recuperar")
}
