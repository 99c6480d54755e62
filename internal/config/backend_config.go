package config

import "strings"

const (
	BackendLocal = "local"
	BackendOIDC  = "oidc"
)

type BackendConfig interface {
	GetBackendKind() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCScopes() []string
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetBackendKind() string {
	return strings.ToLower(GetEnv("DAYFLOW_BACKEND", BackendLocal))
}

func (Backend) GetOIDCIssuer() string {
	return GetEnv("DAYFLOW_OIDC_ISSUER", "")
}

func (Backend) GetOIDCClientID() string {
	return GetEnv("DAYFLOW_OIDC_CLIENT_ID", "")
}

func (Backend) GetOIDCClientSecret() string {
	return GetEnv("DAYFLOW_OIDC_CLIENT_SECRET", "")
}

func (Backend) GetOIDCScopes() []string {
	raw := GetEnv("DAYFLOW_OIDC_SCOPES", "openid,profile,email,offline_access")
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
