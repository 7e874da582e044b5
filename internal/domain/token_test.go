package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationTokenShape(t *testing.T) {
	token, err := NewVerificationToken()
	require.NoError(t, err)
	assert.Len(t, token, verificationTokenBytes*2)

	other, err := NewVerificationToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestVerifyToken(t *testing.T) {
	now := time.Now()
	job := &Job{
		VerificationToken: "a1b2c3d4",
		TokenExpiresAt:    now.Add(24 * time.Hour),
	}

	assert.NoError(t, job.VerifyToken("a1b2c3d4", now))
	assert.ErrorIs(t, job.VerifyToken("a1b2c3d5", now), ErrTokenMismatch)
	assert.ErrorIs(t, job.VerifyToken("", now), ErrTokenMismatch)
	assert.ErrorIs(t, job.VerifyToken("a1b2c3d4", now.Add(25*time.Hour)), ErrTokenExpired)
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusQueued.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}
