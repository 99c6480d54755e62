package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/dayflow/backend/local"
	"github.com/jrsteele09/dayflow/session"
	"github.com/jrsteele09/dayflow/token"
	"github.com/jrsteele09/dayflow/token/refresh"
	refreshrepofake "github.com/jrsteele09/dayflow/token/refresh/repofake"
	"github.com/jrsteele09/dayflow/users"
	fakeuserrepo "github.com/jrsteele09/dayflow/users/repofake"
	"github.com/stretchr/testify/require"
)

// The local backend holds its lock while notifying, so these tests fail by
// deadlocking if the store ever calls it from the listener.
func setupLocalProvider(t *testing.T, options ...local.ProviderOption) *local.Provider {
	t.Helper()
	repo := fakeuserrepo.NewFakeUserRepo()
	tokens, err := token.New([]byte("secret"), "dayflow-test", time.Hour)
	require.NoError(t, err)
	provider, err := local.NewProvider(local.Repos{Users: repo, Profiles: repo, Roles: repo}, tokens,
		refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 24*time.Hour), options...)
	require.NoError(t, err)

	_, err = provider.CreateAccount(local.Account{Email: hrEmail, Password: password, Name: "Sarah Johnson", Role: users.RoleHR})
	require.NoError(t, err)
	_, err = provider.CreateAccount(local.Account{Email: employeeEmail, Password: password, Name: "John Smith", Role: users.RoleEmployee, PasswordChangeRequired: true})
	require.NoError(t, err)
	return provider
}

func TestLocalBackend_LoginLogout(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, setupLocalProvider(t).NewClient())
	waitReady(t, store)

	result := store.Login(ctx, employeeEmail, password)
	require.True(t, result.Success)
	require.Equal(t, users.RoleEmployee, *result.Role)
	require.True(t, store.IsFirstLogin())
	require.Equal(t, "John Smith", store.Profile().Name)
	store.Flush()

	result = store.ChangePassword(ctx, password, "NewPassw0rd")
	require.True(t, result.Success)
	require.False(t, store.IsFirstLogin())

	store.Logout(ctx)
	store.Flush()
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.Profile())

	result = store.Login(ctx, employeeEmail, password)
	require.False(t, result.Success)
	require.Equal(t, "Invalid email or password", result.Error)
}

func TestLocalBackend_SignupWaitsForProvisioning(t *testing.T) {
	ctx := context.Background()
	provider := setupLocalProvider(t, local.WithProvisioningDelay(20*time.Millisecond))
	store := newStore(t, provider.NewClient(), session.WithSignupSettleDelay(100*time.Millisecond))
	waitReady(t, store)

	result := store.Signup(ctx, session.SignupRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@dayflow.com",
		Password: "Analytical1",
		Role:     users.RoleHR,
	})
	require.True(t, result.Success)
	require.Equal(t, users.RoleHR, *store.Role())
	require.Equal(t, "Ada Lovelace", store.Profile().Name)
	require.True(t, store.IsFirstLogin())

	dup := store.Signup(ctx, session.SignupRequest{Name: "Ada", Email: "ADA@dayflow.com", Password: "Analytical1", Role: users.RoleHR})
	require.False(t, dup.Success)
	require.Equal(t, "An account with this email already exists", dup.Error)
}

func TestLocalBackend_SessionsArePerClient(t *testing.T) {
	ctx := context.Background()
	provider := setupLocalProvider(t)
	first := newStore(t, provider.NewClient())
	second := newStore(t, provider.NewClient())
	waitReady(t, first)
	waitReady(t, second)

	require.True(t, first.Login(ctx, hrEmail, password).Success)
	second.Flush()
	require.False(t, second.IsAuthenticated())
}
