package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	errs "github.com/jrsteele09/dayflow/internal/errors"
)

const tokenLength = 32 // 32 bytes = 256 bits

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo    Repo
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = nowFunc
	}
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, expiry time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		expiry:  expiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create generates a new refresh token and stores it
func (m *Manager) Create(userID string) (string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.nowFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Rotate consumes a refresh token and issues its replacement. The old token is deleted
// even when it turns out to be expired.
func (m *Manager) Rotate(token string) (newToken string, userID string, err error) {
	stored, err := m.repo.Get(token)
	if err != nil {
		return "", "", errs.Wrapf(errs.ErrInvalidRefreshToken, "rotate")
	}
	if err := m.repo.Delete(token); err != nil {
		return "", "", fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if m.IsExpired(stored) {
		return "", "", errs.ErrRefreshTokenExpired
	}

	newToken, err = m.Create(stored.UserID)
	if err != nil {
		return "", "", err
	}
	return newToken, stored.UserID, nil
}

// Revoke removes a refresh token. Unknown tokens are ignored.
func (m *Manager) Revoke(token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.Delete(token); err != nil && !errs.Is(err, errs.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeAll removes every refresh token held by the user
func (m *Manager) RevokeAll(userID string) error {
	return m.repo.DeleteByUserID(userID)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return m.nowFunc().Sub(rt.Iat) > m.expiry
}
