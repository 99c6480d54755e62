package errors_test

import (
	"testing"

	errs "github.com/jrsteele09/dayflow/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	require.NoError(t, errs.Wrapf(nil, "ignored"))

	err := errs.Wrapf(errs.ErrNotFound, "profile %s", "u-1")
	require.EqualError(t, err, "profile u-1: not found")
	require.True(t, errs.Is(err, errs.ErrNotFound))
}

func TestIsThroughPkgErrors(t *testing.T) {
	err := pkgerrors.Wrap(errs.ErrEmailExists, "[local.Client.SignUp]")
	require.True(t, errs.Is(err, errs.ErrEmailExists))
	require.Equal(t, errs.ErrEmailExists, pkgerrors.Cause(err))
}

func TestInvalidRequest(t *testing.T) {
	err := pkgerrors.Wrap(errs.InvalidRequest("name is %s", "required"), "[signUp]")
	require.True(t, errs.Is(err, errs.ErrInvalidRequest))

	var reqErr *errs.RequestError
	require.True(t, errs.As(err, &reqErr))
	require.Equal(t, "name is required", reqErr.Message)
}
