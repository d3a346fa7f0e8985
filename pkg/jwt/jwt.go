package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Propósitos de token: un token de recuperación nunca sirve como token de acceso ni al revés.
const (
	PurposeAccess = "access"
	PurposeReset  = "reset"
)

// ErrWrongPurpose el token es válido pero fue emitido para otro uso.
var ErrWrongPurpose = errors.New("jwt: propósito de token incorrecto")

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Se añade Role para que el middleware RBAC pueda tomar decisiones sin consultar la DB.
// El ID (jti) identifica el token para poder revocarlo en logout.
type Claims struct {
	jwt.RegisteredClaims
	UserID  int64  `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"` // "ADMIN" | "USER"
	Purpose string `json:"purpose"`
}

// Generate genera un token de acceso firmado que incluye userID, email y role.
func Generate(secret string, userID int64, email, role, issuer string, expMinutes int) (string, error) {
	return sign(secret, Claims{UserID: userID, Email: email, Role: role, Purpose: PurposeAccess}, issuer, expMinutes)
}

// GenerateReset genera un token de recuperación de contraseña de vida corta.
func GenerateReset(secret string, userID int64, email, issuer string, expMinutes int) (string, error) {
	return sign(secret, Claims{UserID: userID, Email: email, Purpose: PurposeReset}, issuer, expMinutes)
}

// Parse valida un token de acceso y devuelve sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	return parse(secret, tokenString, PurposeAccess)
}

// ParseReset valida un token de recuperación de contraseña.
func ParseReset(secret, tokenString string) (*Claims, error) {
	return parse(secret, tokenString, PurposeReset)
}

func sign(secret string, claims Claims, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   fmt.Sprintf("%d", claims.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parse(secret, tokenString, purpose string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// TTL tiempo que le queda al token; cero si no tiene expiración o ya expiró.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Time.Sub(now); d > 0 {
		return d
	}
	return 0
}
