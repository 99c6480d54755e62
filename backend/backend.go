// Package backend defines the auth/data service the session store talks to.
//
// A Client is the equivalent of one browser's connection to a hosted auth service:
// it holds the current session for that browser and notifies subscribers whenever
// the session changes. Implementations live in the local and remote sub-packages.
package backend

import (
	"context"
	"time"

	"github.com/jrsteele09/dayflow/users"
)

// Identity is the opaque external identity of a signed-in user
type Identity struct {
	UserID                 string
	Email                  string
	AccessToken            string
	RefreshToken           string
	ExpiresAt              time.Time
	PasswordChangeRequired bool // account is flagged for mandatory password rotation
}

// Expired reports whether the access token has passed its expiry
func (i *Identity) Expired(now time.Time) bool {
	return i != nil && !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Clone returns a copy so receivers never share an Identity with the client
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// SignUpMetadata is passed to the service for server-side profile and role provisioning
type SignUpMetadata struct {
	Name    string
	Company string
	Phone   string
	Role    users.Role
}

// ChangeListener receives the new identity, or nil when the session ended.
type ChangeListener func(identity *Identity)

// Client is one browser's handle on the auth/data service.
//
// Listeners registered with Subscribe are invoked while the client is still dispatching
// the change. They must not call back into the client from the listener itself; doing
// so deadlocks. Work that needs the client has to be scheduled for later.
type Client interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password string, metadata SignUpMetadata) (*Identity, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Identity, error)
	RefreshSession(ctx context.Context) (*Identity, error)
	UpdatePassword(ctx context.Context, currentPassword, newPassword string) error
	Subscribe(listener ChangeListener) (unsubscribe func())

	// FetchProfile returns nil with no error when the user has no profile row yet
	FetchProfile(ctx context.Context, userID string) (*users.Profile, error)
	// FetchRole returns nil with no error when no role is bound to the user yet
	FetchRole(ctx context.Context, userID string) (*users.Role, error)
}

// ClientFactory creates a fresh, signed-out client per browser session
type ClientFactory interface {
	NewClient() Client
}
