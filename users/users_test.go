package users_test

import (
	"testing"

	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	fakeuserrepo "github.com/jrsteele09/dayflow/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		errMsg   string
	}{
		{"valid", "Secret123", ""},
		{"too short", "Ab1", "at least 8 characters"},
		{"no upper", "secret123", "uppercase"},
		{"no lower", "SECRET123", "lowercase"},
		{"no number", "SecretPass", "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("password123", hash))
	require.False(t, users.CheckPasswordHash("password124", hash))
}

func TestParseRole(t *testing.T) {
	r, err := users.ParseRole(" hr ")
	require.NoError(t, err)
	require.Equal(t, users.RoleHR, r)

	r, err = users.ParseRole("EMPLOYEE")
	require.NoError(t, err)
	require.Equal(t, users.RoleEmployee, r)

	_, err = users.ParseRole("admin")
	require.Error(t, err)
	require.False(t, users.Role("admin").Valid())
}

func TestProfile(t *testing.T) {
	p := &users.Profile{Name: "sarah jane johnson", Email: "hr@dayflow.com", Department: utils.Ptr("Human Resources")}
	require.Equal(t, "SJ", p.Initials())
	require.True(t, p.Matches("human"))
	require.True(t, p.Matches("HR@"))
	require.True(t, p.Matches(""))
	require.False(t, p.Matches("engineering"))

	var nilProfile *users.Profile
	require.Equal(t, "U", nilProfile.Initials())
	require.Equal(t, "U", (&users.Profile{}).Initials())
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	t.Run("users", func(t *testing.T) {
		u := &users.User{Email: "a@example.com"}
		require.NoError(t, repo.Upsert(u))
		require.NotEmpty(t, u.ID)

		got, err := repo.GetByEmail("a@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		got.Blocked = true
		again, err := repo.GetByID(u.ID)
		require.NoError(t, err)
		require.False(t, again.Blocked, "repo must hand out copies")

		_, err = repo.GetByEmail("missing@example.com")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("profiles", func(t *testing.T) {
		require.NoError(t, repo.UpsertProfile(&users.Profile{UserID: "2", Name: "Zed"}))
		require.NoError(t, repo.UpsertProfile(&users.Profile{UserID: "1", Name: "Amy"}))
		require.Error(t, repo.UpsertProfile(&users.Profile{Name: "No ID"}))

		list, err := repo.ListProfiles()
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "Amy", list[0].Name)

		_, err = repo.GetProfile("3")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("roles", func(t *testing.T) {
		require.NoError(t, repo.SetRole("1", users.RoleHR))
		require.Error(t, repo.SetRole("1", users.Role("boss")))

		role, err := repo.GetRole("1")
		require.NoError(t, err)
		require.Equal(t, users.RoleHR, role)

		_, err = repo.GetRole("9")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}
