package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret          string
	ExpMinutes      int
	Issuer          string
	ResetExpMinutes int
}

// TokenRevoker guarda los jti revocados (logout). Implementado sobre Redis.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ResetMailer envía el enlace de recuperación de contraseña.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// AuthUseCase casos de uso de autenticación: login, logout y recuperación de contraseña.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	revoker  TokenRevoker
	mailer   ResetMailer
}

// NewAuthUseCase construye el caso de uso de auth. revoker y mailer pueden ser nil
// (sin Redis el logout no invalida el token; sin mailer no hay recuperación por correo).
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, revoker TokenRevoker, mailer ResetMailer) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, revoker: revoker, mailer: mailer}
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
		User:      dto.ToUserResponse(user),
	}, nil
}

// Logout revoca el token hasta su expiración.
func (uc *AuthUseCase) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return domain.ErrUnauthorized
	}
	if uc.revoker == nil {
		log.Warn().Int64("user_id", claims.UserID).Msg("logout sin store de revocación: el token sigue vigente hasta expirar")
		return nil
	}
	return uc.revoker.Revoke(ctx, claims.ID, claims.TTL(time.Now()))
}

// IsRevoked informa si el jti fue revocado por logout.
func (uc *AuthUseCase) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if uc.revoker == nil {
		return false, nil
	}
	return uc.revoker.IsRevoked(ctx, jti)
}

// ForgotPassword envía el correo de recuperación si el email existe.
// Para no revelar qué emails están registrados, un email desconocido no es error.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) error {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return err
	}
	if user == nil {
		log.Info().Msg("recuperación solicitada para email no registrado")
		return nil
	}
	token, err := jwt.GenerateReset(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.ResetExpMinutes)
	if err != nil {
		return err
	}
	if uc.mailer == nil {
		log.Warn().Int64("user_id", user.ID).Msg("recuperación solicitada sin mailer configurado")
		return nil
	}
	return uc.mailer.SendPasswordReset(ctx, user.Email, user.Name, token)
}

// ResetPassword valida el token de recuperación y guarda la nueva contraseña.
// El token no sirve si el email del usuario cambió después de emitirlo.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) error {
	claims, err := jwt.ParseReset(uc.jwtCfg.Secret, in.Token)
	if err != nil {
		return domain.ErrUnauthorized
	}
	if uc.revoker != nil {
		revoked, err := uc.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return domain.ErrUnauthorized
		}
	}
	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user == nil || !strings.EqualFold(user.Email, claims.Email) {
		return domain.ErrUnauthorized
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return domain.ErrInvalidInput
		}
		return err
	}
	if err := uc.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	// Un token de recuperación se usa una sola vez.
	if uc.revoker != nil {
		if err := uc.revoker.Revoke(ctx, claims.ID, claims.TTL(time.Now())); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("no se pudo revocar el token de recuperación")
		}
	}
	return nil
}
