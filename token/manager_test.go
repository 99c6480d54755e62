package token_test

import (
	"testing"
	"time"

	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "http://localhost:8080"
)

func TestManager_IssueAndParse(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	m, err := token.New([]byte(testSecret), testIssuer, 15*time.Minute, token.WithNowTime(clock))
	require.NoError(t, err)

	signed, expiresAt, err := m.Issue("user-1", "hr@dayflow.com")
	require.NoError(t, err)
	require.Equal(t, now.Add(15*time.Minute), expiresAt)

	t.Run("valid", func(t *testing.T) {
		claims, err := m.Parse(signed)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "hr@dayflow.com", claims.Email)
		require.NotEmpty(t, claims.ID)
	})

	t.Run("expired", func(t *testing.T) {
		late, err := token.New([]byte(testSecret), testIssuer, 15*time.Minute,
			token.WithNowTime(func() time.Time { return now.Add(time.Hour) }))
		require.NoError(t, err)
		_, err = late.Parse(signed)
		require.ErrorIs(t, err, errs.ErrSessionExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := token.New([]byte("other"), testIssuer, 15*time.Minute, token.WithNowTime(clock))
		require.NoError(t, err)
		_, err = other.Parse(signed)
		require.ErrorIs(t, err, errs.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := token.New([]byte(testSecret), "https://elsewhere", 15*time.Minute, token.WithNowTime(clock))
		require.NoError(t, err)
		_, err = other.Parse(signed)
		require.ErrorIs(t, err, errs.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.jwt")
		require.ErrorIs(t, err, errs.ErrInvalidToken)
	})
}

func TestNew_Validation(t *testing.T) {
	_, err := token.New(nil, testIssuer, time.Minute)
	require.Error(t, err)

	_, err = token.New([]byte(testSecret), testIssuer, 0)
	require.Error(t, err)
}

func TestManager_Revoke(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := token.NewInMemoryRevocationList()
	m, err := token.New([]byte(testSecret), testIssuer, 15*time.Minute,
		token.WithNowTime(func() time.Time { return now }),
		token.WithRevocationList(list),
	)
	require.NoError(t, err)

	revoked, _, err := m.Issue("user-1", "emily@dayflow.com")
	require.NoError(t, err)
	other, _, err := m.Issue("user-1", "emily@dayflow.com")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(revoked))

	_, err = m.Parse(revoked)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	_, err = m.Parse(other)
	require.NoError(t, err)

	t.Run("unparseable token is ignored", func(t *testing.T) {
		require.NoError(t, m.Revoke("garbage"))
	})
}

func TestInMemoryRevocationList_Cleanup(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := token.NewInMemoryRevocationList()
	require.NoError(t, list.Add("old", now.Add(-time.Minute)))
	require.NoError(t, list.Add("live", now.Add(time.Minute)))

	list.Cleanup(now)
	require.False(t, list.IsRevoked("old"))
	require.True(t, list.IsRevoked("live"))
}
