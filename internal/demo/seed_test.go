package demo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/dayflow/backend/local"
	"github.com/jrsteele09/dayflow/hrdata"
	fakehrrepo "github.com/jrsteele09/dayflow/hrdata/repofake"
	"github.com/jrsteele09/dayflow/internal/demo"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/token"
	"github.com/jrsteele09/dayflow/token/refresh"
	refreshrepofake "github.com/jrsteele09/dayflow/token/refresh/repofake"
	"github.com/jrsteele09/dayflow/users"
	fakeuserrepo "github.com/jrsteele09/dayflow/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	now := time.Date(2026, time.March, 18, 12, 0, 0, 0, time.UTC)
	userRepo := fakeuserrepo.NewFakeUserRepo()
	hrRepo := fakehrrepo.NewFakeHRRepo()

	tokens, err := token.New([]byte("secret"), "dayflow-test", time.Hour)
	require.NoError(t, err)
	provider, err := local.NewProvider(local.Repos{Users: userRepo, Profiles: userRepo, Roles: userRepo},
		tokens, refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour))
	require.NoError(t, err)

	require.NoError(t, demo.Seed(provider, hrRepo, now))
	require.NoError(t, demo.Seed(provider, hrRepo, now), "seeding twice is harmless")
	first, err := hrRepo.ListLeaveRequests("")
	require.NoError(t, err)
	require.Len(t, first, 3)

	profiles, err := userRepo.ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, len(demo.Accounts))

	ctx := context.Background()
	client := provider.NewClient()
	identity, err := client.SignIn(ctx, demo.EmployeeEmail, demo.Password)
	require.NoError(t, err)
	require.True(t, identity.PasswordChangeRequired)

	role, err := client.FetchRole(ctx, identity.UserID)
	require.NoError(t, err)
	require.Equal(t, users.RoleEmployee, *role)

	hr, err := provider.NewClient().SignIn(ctx, demo.HREmail, demo.Password)
	require.NoError(t, err)
	require.False(t, hr.PasswordChangeRequired)

	service, err := hrdata.NewService(hrRepo, userRepo, hrdata.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)
	actor := hrdata.Actor{UserID: identity.UserID, Role: utils.Ptr(users.RoleEmployee)}

	payslips, err := service.Payslips(actor, identity.UserID)
	require.NoError(t, err)
	require.NotEmpty(t, payslips)

	requests, err := service.ListLeaveRequests(actor, identity.UserID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, time.Monday, requests[0].StartDate.Weekday())
	require.Equal(t, 5, requests[0].Days(), "the demo vacation spans one working week")
}
