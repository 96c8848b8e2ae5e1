package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("u-1", true, secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("u-1", false, []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("wrong"))
	require.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("u-1", false, secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	require.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not-a-token", []byte("k"))
	require.Error(t, err)
}
