package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "secreto-de-prueba"

func TestGenerateParse(t *testing.T) {
	tok, err := Generate(secret, 42, "ana@example.com", "ADMIN", "stock-api", 60)
	require.NoError(t, err)

	claims, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID, "cada token lleva jti")
	assert.InDelta(t, time.Hour.Seconds(), claims.TTL(time.Now()).Seconds(), 5)
}

func TestParse_JTIUnico(t *testing.T) {
	a, err := Generate(secret, 1, "", "USER", "stock-api", 60)
	require.NoError(t, err)
	b, err := Generate(secret, 1, "", "USER", "stock-api", 60)
	require.NoError(t, err)

	ca, err := Parse(secret, a)
	require.NoError(t, err)
	cb, err := Parse(secret, b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParse_Rechazos(t *testing.T) {
	tok, err := Generate(secret, 1, "", "USER", "stock-api", 60)
	require.NoError(t, err)

	_, err = Parse("otro-secreto", tok)
	assert.Error(t, err, "firma incorrecta")

	expired, err := Generate(secret, 1, "", "USER", "stock-api", -1)
	require.NoError(t, err)
	_, err = Parse(secret, expired)
	assert.Error(t, err, "expirado")

	_, err = Parse(secret, "no-es-un-jwt")
	assert.Error(t, err)

	_, err = Generate("", 1, "", "USER", "stock-api", 60)
	assert.Error(t, err)
}

func TestReset_NoSirveComoAcceso(t *testing.T) {
	reset, err := GenerateReset(secret, 9, "ana@example.com", "stock-api", 15)
	require.NoError(t, err)

	_, err = Parse(secret, reset)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := ParseReset(secret, reset)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)

	access, err := Generate(secret, 9, "", "USER", "stock-api", 60)
	require.NoError(t, err)
	_, err = ParseReset(secret, access)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}
