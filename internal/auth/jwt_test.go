package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Minute)

	raw, err := m.GenerateAccessToken("acc-1", "ada@example.com", "admin")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(raw)
	require.NoError(t, err)

	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.JTI)
}

func TestManager_RejectsOtherSecret(t *testing.T) {
	raw, err := NewManager("one", time.Minute).GenerateAccessToken("acc-1", "a@example.com", "user")
	require.NoError(t, err)

	_, err = NewManager("two", time.Minute).VerifyAccessToken(raw)
	assert.Error(t, err)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	issued := time.Now().UTC().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	raw, err := m.GenerateAccessToken("acc-1", "a@example.com", "user")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().UTC() }

	_, err = m.VerifyAccessToken(raw)
	assert.Error(t, err)
}
