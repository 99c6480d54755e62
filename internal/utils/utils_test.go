package utils_test

import (
	"testing"

	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, 3, utils.Value(utils.Ptr(3)))
	require.Nil(t, utils.OptionalString(""))
	require.Equal(t, "x", *utils.OptionalString("x"))

	orig := utils.Ptr("a")
	c := utils.Clone(orig)
	*c = "b"
	require.Equal(t, "a", *orig)
	require.Nil(t, utils.Clone[int](nil))
}

func TestClaimStrings(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		require.Equal(t, []string{"HR", "x"}, utils.ClaimStrings([]any{"HR", 1, "x", nil}))
	})
	t.Run("single string", func(t *testing.T) {
		require.Equal(t, []string{"EMPLOYEE"}, utils.ClaimStrings("EMPLOYEE"))
	})
	t.Run("missing", func(t *testing.T) {
		require.Empty(t, utils.ClaimStrings(nil))
		require.Empty(t, utils.ClaimStrings(""))
		require.Empty(t, utils.ClaimStrings(42))
	})
}
