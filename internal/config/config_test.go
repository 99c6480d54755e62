package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/dayflow/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("ENV", "")
		t.Setenv("DAYFLOW_SEED_DEMO", "")

		c := config.New()
		require.Equal(t, ":8080", c.GetPort())
		require.Equal(t, "Dayflow", c.GetAppName())
		require.Equal(t, "DEV", c.GetEnv())
		require.True(t, c.GetSeedDemoData())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("ENV", "PROD")
		t.Setenv("DAYFLOW_SEED_DEMO", "")

		c := config.New()
		require.Equal(t, ":9090", c.GetPort())
		require.False(t, c.GetSeedDemoData())
	})

	t.Run("port already prefixed", func(t *testing.T) {
		t.Setenv("PORT", ":7000")
		require.Equal(t, ":7000", config.New().GetPort())
	})
}

func TestDurations(t *testing.T) {
	t.Setenv("DAYFLOW_SIGNUP_SETTLE", "2s")
	t.Setenv("DAYFLOW_ACCESS_TOKEN_EXPIRY", "not-a-duration")
	t.Setenv("DAYFLOW_MAX_SESSION_AGE", "-5m")

	c := config.New()
	require.Equal(t, 2*time.Second, c.GetSignupSettleDelay())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 30*time.Minute, c.GetMaxSessionAge())
}

func TestJWTSecret(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		t.Setenv("DAYFLOW_JWT_SECRET", "s3cr3t")
		require.Equal(t, []byte("s3cr3t"), config.New().GetJWTSecret())
	})

	t.Run("generated once", func(t *testing.T) {
		t.Setenv("DAYFLOW_JWT_SECRET", "")
		first := config.New().GetJWTSecret()
		require.Len(t, first, 32)
		require.Equal(t, first, config.New().GetJWTSecret())
	})
}

func TestCorsAndBackend(t *testing.T) {
	t.Setenv("DAYFLOW_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("DAYFLOW_BACKEND", "OIDC")
	t.Setenv("DAYFLOW_OIDC_SCOPES", "openid, email")

	c := config.New()
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
	require.Equal(t, config.BackendOIDC, c.GetBackendKind())
	require.Equal(t, []string{"openid", "email"}, c.GetOIDCScopes())
}
