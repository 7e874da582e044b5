package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const verificationTokenBytes = 32

// NewVerificationToken returns a high-entropy hex secret correlated 1:1 with
// a job. The token authorizes result retrieval via the notification link.
func NewVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// VerifyToken compares the presented token against the job's secret in
// constant time and enforces the absolute expiry fixed at creation.
func (j *Job) VerifyToken(presented string, now time.Time) error {
	if subtle.ConstantTimeCompare([]byte(j.VerificationToken), []byte(presented)) != 1 {
		return ErrTokenMismatch
	}
	if now.After(j.TokenExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
