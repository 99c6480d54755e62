package session

import (
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/pkg/errors"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailExists        = "An account with this email already exists"
	msgBlocked            = "This account has been blocked. Please contact HR."
	msgUnsupported        = "This sign-in provider does not support that operation"
	msgServiceUnavailable = "The service is unavailable, please try again"
)

func loginMessage(err error) string {
	switch {
	case errs.Is(err, errs.ErrInvalidCredentials):
		return msgInvalidCredentials
	case errs.Is(err, errs.ErrUserBlocked):
		return msgBlocked
	}
	return serviceMessage(err)
}

func signupMessage(err error) string {
	switch {
	case errs.Is(err, errs.ErrEmailExists):
		return msgEmailExists
	case errs.Is(err, errs.ErrUnsupported):
		return msgUnsupported
	}
	return serviceMessage(err)
}

func passwordMessage(err error) string {
	switch {
	case errs.Is(err, errs.ErrUnauthenticated), errs.Is(err, errs.ErrSessionExpired):
		return "Your session has expired, please sign in again"
	case errs.Is(err, errs.ErrUnsupported):
		return msgUnsupported
	}
	return serviceMessage(err)
}

// serviceMessage is the backend's own message without the call-site context added by wrapping
func serviceMessage(err error) string {
	var requestErr *errs.RequestError
	if errs.As(err, &requestErr) {
		return requestErr.Message
	}
	if cause := errors.Cause(err); cause != nil && cause.Error() != "" {
		return cause.Error()
	}
	return msgServiceUnavailable
}
