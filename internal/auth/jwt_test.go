package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.GenerateToken("user-1", " A@B.com ", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestValidateRejects(t *testing.T) {
	v := NewVerifier("secret")

	expired, err := v.GenerateToken("user-1", "a@b.com", -time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewVerifier("other").GenerateToken("user-1", "a@b.com", time.Hour)
	require.NoError(t, err)
	_, err = v.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.ValidateToken(noEmail)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewVerifier("").ValidateToken("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}
