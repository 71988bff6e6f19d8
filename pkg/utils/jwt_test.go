package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", "rapidsite-ai")

	pair, err := m.GenerateTokenPair("user-1", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	access, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, "access", access.Type)
	assert.Equal(t, "rapidsite-ai", access.Issuer)

	refresh, err := m.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh.Type)
}

func TestParseTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", "rapidsite-ai")
	token, err := m.GenerateToken("user-1", "access", time.Minute)
	require.NoError(t, err)

	other := NewJWTManager("secret-b", "rapidsite-ai")
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	m := NewJWTManager("test-secret", "rapidsite-ai")
	token, err := m.GenerateToken("user-1", "access", -time.Minute)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseTokenGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", "rapidsite-ai")
	_, err := m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
