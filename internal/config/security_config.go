package config

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	jwtSecretEnvVar     = "DAYFLOW_JWT_SECRET"
	jwtIssuerEnvVar     = "DAYFLOW_JWT_ISSUER"
	accessExpiryEnvVar  = "DAYFLOW_ACCESS_TOKEN_EXPIRY"
	refreshExpiryEnvVar = "DAYFLOW_REFRESH_TOKEN_EXPIRY"
	sessionAgeEnvVar    = "DAYFLOW_MAX_SESSION_AGE"
)

type SecurityConfig interface {
	GetJWTSecret() []byte
	GetJWTIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetMaxSessionAge() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

var (
	generatedSecret     []byte
	generatedSecretOnce sync.Once
)

// GetJWTSecret returns the HMAC key for access tokens. When none is configured a random
// key is generated once per process, which invalidates all tokens on restart.
func (Security) GetJWTSecret() []byte {
	if secret := GetEnv(jwtSecretEnvVar, ""); secret != "" {
		return []byte(secret)
	}
	generatedSecretOnce.Do(func() {
		generatedSecret = make([]byte, 32)
		if _, err := rand.Read(generatedSecret); err != nil {
			panic("failed to generate jwt secret: " + err.Error())
		}
		log.Warn().Str("env", jwtSecretEnvVar).Msg("No JWT secret configured, using a random per-process key")
	})
	return generatedSecret
}

func (Security) GetJWTIssuer() string {
	return GetEnv(jwtIssuerEnvVar, EnvVars{}.GetBaseURL())
}

func (Security) GetAccessTokenExpiry() time.Duration {
	return GetDuration(accessExpiryEnvVar, 15*time.Minute)
}

func (Security) GetRefreshTokenExpiry() time.Duration {
	return GetDuration(refreshExpiryEnvVar, 7*24*time.Hour)
}

// GetMaxSessionAge is how long an idle browser session is kept before it is evicted
func (Security) GetMaxSessionAge() time.Duration {
	return GetDuration(sessionAgeEnvVar, 30*time.Minute)
}

func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
