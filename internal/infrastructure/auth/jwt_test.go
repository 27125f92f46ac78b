package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "crewtransit",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: "user-1",
		Email:  "dispatcher@example.com",
		Roles:  []string{"dispatcher"},
	}
}

func TestValidateToken_Valid(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	caller, err := svc.ValidateToken(signToken(t, testSecret, baseClaims()))
	require.NoError(t, err)

	assert.Equal(t, "user-1", caller.UserID)
	assert.Equal(t, "dispatcher@example.com", caller.Email)
	assert.Equal(t, []string{"dispatcher"}, caller.Roles)
}

func TestValidateToken_FallsBackToSubject(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	claims := baseClaims()
	claims.UserID = ""

	caller, err := svc.ValidateToken(signToken(t, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, "user-1", caller.UserID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	_, err := svc.ValidateToken(signToken(t, "other-secret", baseClaims()))
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	claims := baseClaims()
	claims.Issuer = "somebody-else"

	_, err := svc.ValidateToken(signToken(t, testSecret, claims))
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	claims := baseClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	_, err := svc.ValidateToken(signToken(t, testSecret, claims))
	assert.Error(t, err)
}

func TestValidateToken_RejectsUnsignedAlgorithm(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	token := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims())
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}
