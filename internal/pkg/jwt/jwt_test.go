package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	token, expiresAt, err := svc.GenerateAccessToken("u-9", user.RoleEmployee)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims, err := decoded.AsMap(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims["user_id"])
	assert.Equal(t, "employee", claims["role"])
	assert.Equal(t, "access", claims["type"])
}

func TestGenerateAccessToken_WrongSecretRejected(t *testing.T) {
	token, _, err := NewJWTService("one", time.Minute).GenerateAccessToken("u-9", user.RoleEmployee)
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(NewJWTService("two", time.Minute).JWTAuth(), token)
	assert.Error(t, err)
}
