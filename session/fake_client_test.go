package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/dayflow/backend"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/users"
)

type fakeAccount struct {
	userID   string
	password string
	flagged  bool
}

// fakeClient is a backend.Client that, like the real ones, holds its lock while
// notifying listeners. Fetches can be made to fail or to block on a gate.
type fakeClient struct {
	mu        sync.Mutex
	identity  *backend.Identity
	listeners map[int]backend.ChangeListener
	next      int

	dataMu     sync.Mutex
	accounts   map[string]fakeAccount
	profiles   map[string]users.Profile
	roles      map[string]users.Role
	profileErr error
	roleErr    error
	signOutErr error
	fetchGate  chan struct{}

	fetches atomic.Int32
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		listeners: make(map[int]backend.ChangeListener),
		accounts:  make(map[string]fakeAccount),
		profiles:  make(map[string]users.Profile),
		roles:     make(map[string]users.Role),
	}
}

func (c *fakeClient) addAccount(email, password, userID, name string, role users.Role, flagged bool) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	c.accounts[email] = fakeAccount{userID: userID, password: password, flagged: flagged}
	c.profiles[userID] = users.Profile{UserID: userID, Name: name, Email: email}
	c.roles[userID] = role
}

func (c *fakeClient) setProfileName(userID, name string) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	p := c.profiles[userID]
	p.Name = name
	c.profiles[userID] = p
}

func (c *fakeClient) setFetchErrors(profileErr, roleErr error) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	c.profileErr, c.roleErr = profileErr, roleErr
}

// blockFetches makes every fetch wait until the returned function is called
func (c *fakeClient) blockFetches() (release func()) {
	gate := make(chan struct{})
	c.dataMu.Lock()
	c.fetchGate = gate
	c.dataMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.dataMu.Lock()
			c.fetchGate = nil
			c.dataMu.Unlock()
			close(gate)
		})
	}
}

// push replaces the session from outside the store, e.g. another tab or an expiry
func (c *fakeClient) push(identity *backend.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(identity)
}

func (c *fakeClient) dispatchLocked(identity *backend.Identity) {
	c.identity = identity.Clone()
	for _, l := range c.listeners {
		l(identity.Clone())
	}
}

func (c *fakeClient) SignIn(ctx context.Context, email, password string) (*backend.Identity, error) {
	c.dataMu.Lock()
	account, ok := c.accounts[email]
	c.dataMu.Unlock()
	if !ok || account.password != password {
		return nil, errs.Wrapf(errs.ErrInvalidCredentials, "sign in")
	}
	identity := &backend.Identity{UserID: account.userID, Email: email, AccessToken: "token-" + account.userID, PasswordChangeRequired: account.flagged}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(identity)
	return identity.Clone(), nil
}

func (c *fakeClient) SignUp(ctx context.Context, email, password string, metadata backend.SignUpMetadata) (*backend.Identity, error) {
	c.dataMu.Lock()
	if _, exists := c.accounts[email]; exists {
		c.dataMu.Unlock()
		return nil, errs.ErrEmailExists
	}
	if len(password) < 8 {
		c.dataMu.Unlock()
		return nil, errs.InvalidRequest("password must be at least 8 characters long")
	}
	userID := "new-" + email
	c.accounts[email] = fakeAccount{userID: userID, password: password}
	c.profiles[userID] = users.Profile{UserID: userID, Name: metadata.Name, Email: email}
	c.roles[userID] = metadata.Role
	c.dataMu.Unlock()

	identity := &backend.Identity{UserID: userID, Email: email}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(identity)
	return identity.Clone(), nil
}

func (c *fakeClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(nil)
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	return c.signOutErr
}

func (c *fakeClient) CurrentSession(ctx context.Context) (*backend.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.Clone(), nil
}

func (c *fakeClient) RefreshSession(ctx context.Context) (*backend.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil, errs.ErrSessionNotFound
	}
	identity := c.identity.Clone()
	identity.AccessToken += "-refreshed"
	c.dispatchLocked(identity)
	return identity.Clone(), nil
}

func (c *fakeClient) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	c.mu.Lock()
	identity := c.identity.Clone()
	c.mu.Unlock()
	if identity == nil {
		return errs.ErrUnauthenticated
	}

	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	account := c.accounts[identity.Email]
	if account.password != currentPassword {
		return errs.InvalidRequest("current password is incorrect")
	}
	account.password = newPassword
	account.flagged = false
	c.accounts[identity.Email] = account
	return nil
}

func (c *fakeClient) Subscribe(listener backend.ChangeListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.listeners[id] = listener
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// wait takes the client lock the way the real clients' data calls do, so a call from
// inside a listener deadlocks, then honours the fetch gate
func (c *fakeClient) wait(ctx context.Context) error {
	c.fetches.Add(1)
	c.mu.Lock()
	c.mu.Unlock() //nolint:staticcheck

	c.dataMu.Lock()
	gate := c.fetchGate
	c.dataMu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeClient) FetchProfile(ctx context.Context, userID string) (*users.Profile, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	if c.profileErr != nil {
		return nil, c.profileErr
	}
	p, ok := c.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeClient) FetchRole(ctx context.Context, userID string) (*users.Role, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	if c.roleErr != nil {
		return nil, c.roleErr
	}
	r, ok := c.roles[userID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

var errFetchFailed = errors.New("fetch failed")
