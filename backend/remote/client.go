package remote

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/dayflow/backend"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Client is one browser's session with the OIDC provider. Like the local client it
// dispatches session changes with mu held, so listeners must not call back in.
type Client struct {
	provider *Provider

	mu           sync.Mutex
	identity     *backend.Identity
	listeners    map[uint64]backend.ChangeListener
	nextListener uint64
}

var _ backend.Client = (*Client)(nil)

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Identity, error) {
	tok, err := c.provider.oauth2Config.PasswordCredentialsToken(ctx, users.NormaliseEmail(email), password)
	if err != nil {
		return nil, errors.Wrap(mapTokenError(err), "[remote.Client.SignIn]")
	}
	identity, err := c.provider.identityFromToken(ctx, tok)
	if err != nil {
		return nil, errors.Wrap(err, "[remote.Client.SignIn]")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSessionLocked(identity)
	return identity.Clone(), nil
}

// SignUp is not available; accounts are created at the provider
func (c *Client) SignUp(ctx context.Context, email, password string, metadata backend.SignUpMetadata) (*backend.Identity, error) {
	return nil, errs.Wrapf(errs.ErrUnsupported, "sign-up is managed by the identity provider")
}

// SignOut forgets the tokens locally. The provider session is left to expire.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity != nil {
		c.replaceSessionLocked(nil)
	}
	return nil
}

func (c *Client) CurrentSession(ctx context.Context) (*backend.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil, nil
	}
	if c.identity.Expired(c.provider.nowTime()) {
		return nil, errs.ErrSessionExpired
	}
	return c.identity.Clone(), nil
}

// RefreshSession uses the refresh grant. A failed refresh ends the session.
func (c *Client) RefreshSession(ctx context.Context) (*backend.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil || c.identity.RefreshToken == "" {
		return nil, errs.ErrSessionNotFound
	}
	stale := &oauth2.Token{
		RefreshToken: c.identity.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	tok, err := c.provider.oauth2Config.TokenSource(ctx, stale).Token()
	if err != nil {
		c.replaceSessionLocked(nil)
		return nil, errors.Wrap(mapTokenError(err), "[remote.Client.RefreshSession]")
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = c.identity.RefreshToken
	}
	identity, err := c.provider.identityFromToken(ctx, tok)
	if err != nil {
		c.replaceSessionLocked(nil)
		return nil, errors.Wrap(err, "[remote.Client.RefreshSession]")
	}
	c.replaceSessionLocked(identity)
	return identity.Clone(), nil
}

func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	return errs.Wrapf(errs.ErrUnsupported, "passwords are managed by the identity provider")
}

func (c *Client) Subscribe(listener backend.ChangeListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners[id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.listeners, id)
		})
	}
}

// FetchProfile builds a profile from the userinfo endpoint for the signed-in user, and
// from cached ID token claims for anyone else.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*users.Profile, error) {
	identity, err := c.session()
	if err != nil {
		return nil, errors.Wrap(err, "[remote.Client.FetchProfile]")
	}

	claims, cached := c.provider.cachedClaims(userID)
	if userID != identity.UserID {
		if !cached {
			return nil, nil
		}
		return profileFromClaims(claims), nil
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: identity.AccessToken, TokenType: "Bearer"})
	info, err := c.provider.oidcProvider.UserInfo(ctx, ts)
	if err != nil {
		return nil, errors.Wrap(err, "[remote.Client.FetchProfile] UserInfo")
	}
	var extra struct {
		Name       string `json:"name"`
		Picture    string `json:"picture"`
		Department string `json:"department"`
		Position   string `json:"position"`
		Phone      string `json:"phone_number"`
		Company    string `json:"company"`
		EmployeeID string `json:"employee_id"`
	}
	if err := info.Claims(&extra); err != nil {
		return nil, errors.Wrap(err, "[remote.Client.FetchProfile] Claims")
	}

	profile := profileFromClaims(claims)
	profile.UserID = info.Subject
	if info.Email != "" {
		profile.Email = users.NormaliseEmail(info.Email)
	}
	if extra.Name != "" {
		profile.Name = extra.Name
	}
	if extra.Picture != "" {
		profile.AvatarURL = utils.Ptr(extra.Picture)
	}
	profile.Department = utils.OptionalString(extra.Department)
	profile.Position = utils.OptionalString(extra.Position)
	profile.Phone = utils.OptionalString(extra.Phone)
	profile.Company = utils.OptionalString(extra.Company)
	profile.EmployeeID = utils.OptionalString(extra.EmployeeID)
	return profile, nil
}

// FetchRole reads the roles claim of the user's last verified ID token
func (c *Client) FetchRole(ctx context.Context, userID string) (*users.Role, error) {
	if _, err := c.session(); err != nil {
		return nil, errors.Wrap(err, "[remote.Client.FetchRole]")
	}
	claims, ok := c.provider.cachedClaims(userID)
	if !ok {
		return nil, nil
	}
	return claims.role(), nil
}

func (c *Client) session() (*backend.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil, errs.ErrUnauthenticated
	}
	if c.identity.Expired(c.provider.nowTime()) {
		return nil, errs.ErrSessionExpired
	}
	return c.identity.Clone(), nil
}

// replaceSessionLocked swaps the session and notifies listeners. Caller holds c.mu.
func (c *Client) replaceSessionLocked(identity *backend.Identity) {
	c.identity = identity.Clone()
	for id, listener := range c.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Uint64("listener", id).Msg("Session listener panicked")
				}
			}()
			listener(identity.Clone())
		}()
	}
}

func profileFromClaims(claims idTokenClaims) *users.Profile {
	profile := &users.Profile{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  users.NormaliseEmail(claims.Email),
	}
	if claims.Picture != "" {
		profile.AvatarURL = utils.Ptr(claims.Picture)
	}
	return profile
}

// mapTokenError turns a rejected grant into ErrInvalidCredentials
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errs.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" ||
			(retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			return errs.ErrInvalidCredentials
		}
	}
	return err
}
