package config

import "time"

const (
	signupSettleEnvVar = "DAYFLOW_SIGNUP_SETTLE"
	fetchTimeoutEnvVar = "DAYFLOW_FETCH_TIMEOUT"
	readyWaitEnvVar    = "DAYFLOW_SESSION_READY_WAIT"
)

type SessionConfig interface {
	GetSignupSettleDelay() time.Duration
	GetFetchTimeout() time.Duration
	GetSessionReadyWait() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetSignupSettleDelay is the pause between account creation and the first profile fetch,
// giving the backend time to provision the profile and role rows.
func (Session) GetSignupSettleDelay() time.Duration {
	return GetDuration(signupSettleEnvVar, 500*time.Millisecond)
}

func (Session) GetFetchTimeout() time.Duration {
	return GetDuration(fetchTimeoutEnvVar, 10*time.Second)
}

// GetSessionReadyWait bounds how long a request waits for a new browser session's
// initial check before the loading page is served instead.
func (Session) GetSessionReadyWait() time.Duration {
	return GetDuration(readyWaitEnvVar, 2*time.Second)
}
