package local

import (
	"context"
	"sync"

	"github.com/jrsteele09/dayflow/backend"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client is one browser's session with the local service.
//
// mu guards the session and the listener set and stays locked while listeners run,
// so any client call made from inside a listener blocks forever.
type Client struct {
	provider *Provider

	mu           sync.Mutex
	identity     *backend.Identity
	listeners    map[uint64]backend.ChangeListener
	nextListener uint64
}

var _ backend.Client = (*Client)(nil)

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	identity, err := c.provider.signIn(email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[local.Client.SignIn]")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSessionLocked(identity)
	return identity.Clone(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata backend.SignUpMetadata) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	identity, err := c.provider.signUp(email, password, metadata)
	if err != nil {
		return nil, errors.Wrap(err, "[local.Client.SignUp]")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSessionLocked(identity)
	return identity.Clone(), nil
}

// SignOut revokes the access and refresh tokens and ends the session. The session is
// ended even when revocation fails; the revocation error is still returned.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil {
		return nil
	}
	revokeErr := c.provider.tokens.Revoke(c.identity.AccessToken)
	if err := c.provider.refresh.Revoke(c.identity.RefreshToken); err != nil {
		revokeErr = err
	}
	c.replaceSessionLocked(nil)
	if revokeErr != nil {
		return errors.Wrap(revokeErr, "[local.Client.SignOut] Revoke")
	}
	return nil
}

// CurrentSession returns the session if its access token is still valid
func (c *Client) CurrentSession(ctx context.Context) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil {
		return nil, nil
	}
	if err := c.provider.authorize(c.identity); err != nil {
		return nil, errors.Wrap(err, "[local.Client.CurrentSession]")
	}
	return c.identity.Clone(), nil
}

// RefreshSession rotates the refresh token. A failed rotation ends the session.
func (c *Client) RefreshSession(ctx context.Context) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil {
		return nil, errs.ErrSessionNotFound
	}
	identity, err := c.provider.refreshIdentity(c.identity.RefreshToken)
	if err != nil {
		c.replaceSessionLocked(nil)
		return nil, errors.Wrap(err, "[local.Client.RefreshSession]")
	}
	c.replaceSessionLocked(identity)
	return identity.Clone(), nil
}

func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.provider.authorize(c.identity); err != nil {
		return errors.Wrap(err, "[local.Client.UpdatePassword]")
	}
	if err := c.provider.changePassword(c.identity.UserID, currentPassword, newPassword); err != nil {
		return errors.Wrap(err, "[local.Client.UpdatePassword]")
	}
	c.identity.PasswordChangeRequired = false
	return nil
}

// Subscribe registers a listener for session changes. See backend.Client for the
// restriction on calling the client from inside the listener.
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

func (c *Client) FetchProfile(ctx context.Context, userID string) (*users.Profile, error) {
	if err := c.authorizeRead(ctx); err != nil {
		return nil, errors.Wrap(err, "[local.Client.FetchProfile]")
	}
	profile, err := c.provider.repos.Profiles.GetProfile(userID)
	if errs.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[local.Client.FetchProfile] GetProfile")
	}
	return profile, nil
}

func (c *Client) FetchRole(ctx context.Context, userID string) (*users.Role, error) {
	if err := c.authorizeRead(ctx); err != nil {
		return nil, errors.Wrap(err, "[local.Client.FetchRole]")
	}
	role, err := c.provider.repos.Roles.GetRole(userID)
	if errs.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[local.Client.FetchRole] GetRole")
	}
	return &role, nil
}

func (c *Client) authorizeRead(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider.authorize(c.identity)
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
