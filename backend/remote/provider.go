// Package remote signs users in against an external OpenID Connect provider.
//
// Credentials are exchanged with the resource-owner password grant, the ID token is
// verified against the provider's keys and its claims supply the role and the
// password-rotation flag. Profiles come from the userinfo endpoint. Accounts are
// managed by the provider, so sign-up and password changes are not supported here.
package remote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/dayflow/backend"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Config holds the client registration at the provider
type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Provider is the shared side of the OIDC backend. It caches the verified ID token
// claims of every signed-in subject.
type Provider struct {
	oidcProvider *oidc.Provider
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	nowTime      func() time.Time

	claimsLock sync.RWMutex
	claims     map[string]idTokenClaims
}

var _ backend.ClientFactory = (*Provider)(nil)

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// idTokenClaims are the claims read from a verified ID token
type idTokenClaims struct {
	Subject                string `json:"sub"`
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	Picture                string `json:"picture"`
	Roles                  any    `json:"roles"`
	PasswordChangeRequired bool   `json:"password_change_required"`
}

// role returns the first recognised role in the roles claim, which issuers send as
// either a string or a list
func (c idTokenClaims) role() *users.Role {
	for _, r := range utils.ClaimStrings(c.Roles) {
		if role, err := users.ParseRole(r); err == nil {
			return &role
		}
	}
	return nil
}

// NewProvider discovers the issuer's endpoints and keys
func NewProvider(ctx context.Context, cfg Config, options ...ProviderOption) (*Provider, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("[remote.NewProvider] issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[remote.NewProvider] client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, strings.TrimRight(cfg.Issuer, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "[remote.NewProvider] failed to create OIDC provider")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	p := &Provider{
		oidcProvider: provider,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		nowTime: time.Now,
		claims:  make(map[string]idTokenClaims),
	}
	for _, opt := range options {
		opt(p)
	}
	p.verifier = provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
		Now:      p.nowTime,
	})
	return p, nil
}

// NewClient returns a signed-out client for a new browser session
func (p *Provider) NewClient() backend.Client {
	return &Client{
		provider:  p,
		listeners: make(map[uint64]backend.ChangeListener),
	}
}

// identityFromToken verifies the ID token carried by tok and caches its claims
func (p *Provider) identityFromToken(ctx context.Context, tok *oauth2.Token) (*backend.Identity, error) {
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no ID token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "ID token verification failed")
	}
	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "failed to extract claims")
	}

	p.claimsLock.Lock()
	p.claims[claims.Subject] = claims
	p.claimsLock.Unlock()

	return &backend.Identity{
		UserID:                 claims.Subject,
		Email:                  users.NormaliseEmail(claims.Email),
		AccessToken:            tok.AccessToken,
		RefreshToken:           tok.RefreshToken,
		ExpiresAt:              tok.Expiry,
		PasswordChangeRequired: claims.PasswordChangeRequired,
	}, nil
}

func (p *Provider) cachedClaims(subject string) (idTokenClaims, bool) {
	p.claimsLock.RLock()
	defer p.claimsLock.RUnlock()
	c, ok := p.claims[subject]
	return c, ok
}
