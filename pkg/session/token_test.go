package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", 30*time.Minute)

	token, expires, err := m.Issue("sid-1", "admin", 7)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expires, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestManager_ExpiresAfterIdleTimeout(t *testing.T) {
	m := NewManager("secret", 30*time.Minute)
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	token, _, err := m.Issue("sid-1", "user", 2)
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(29 * time.Minute) }
	_, err = m.Parse(token)
	assert.NoError(t, err)

	m.now = func() time.Time { return start.Add(31 * time.Minute) }
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	token, _, err := NewManager("other", time.Minute).Issue("sid", "user", 1)
	require.NoError(t, err)

	_, err = NewManager("secret", time.Minute).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("secret", time.Minute).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
