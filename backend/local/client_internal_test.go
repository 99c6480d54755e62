package local

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/dayflow/backend"
	"github.com/jrsteele09/dayflow/token"
	"github.com/jrsteele09/dayflow/token/refresh"
	refreshrepofake "github.com/jrsteele09/dayflow/token/refresh/repofake"
	"github.com/jrsteele09/dayflow/users"
	fakeuserrepo "github.com/jrsteele09/dayflow/users/repofake"
	"github.com/stretchr/testify/require"
)

// Listeners run while the client lock is held, which is why they must not call back in.
func TestClient_ListenersRunUnderLock(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	tokens, err := token.New([]byte("secret"), "dayflow-test", time.Minute)
	require.NoError(t, err)
	p, err := NewProvider(Repos{Users: repo, Profiles: repo, Roles: repo}, tokens,
		refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour))
	require.NoError(t, err)
	_, err = p.CreateAccount(Account{Email: "hr@dayflow.com", Password: "password123", Name: "Sarah", Role: users.RoleHR})
	require.NoError(t, err)

	c := p.NewClient().(*Client)
	lockedDuringDispatch := false
	c.Subscribe(func(*backend.Identity) {
		if c.mu.TryLock() {
			c.mu.Unlock()
			return
		}
		lockedDuringDispatch = true
	})

	_, err = c.SignIn(context.Background(), "hr@dayflow.com", "password123")
	require.NoError(t, err)
	require.True(t, lockedDuringDispatch)
}

func TestClient_ListenerPanicIsContained(t *testing.T) {
	c := &Client{listeners: make(map[uint64]backend.ChangeListener)}
	delivered := false
	c.Subscribe(func(*backend.Identity) { panic("boom") })
	c.Subscribe(func(*backend.Identity) { delivered = true })

	c.mu.Lock()
	c.replaceSessionLocked(nil)
	c.mu.Unlock()
	require.True(t, delivered)
}
