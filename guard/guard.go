// Package guard decides, for each navigation, whether to render the requested view or
// redirect, based on a session snapshot.
package guard

import (
	"net/url"
	"slices"
	"strings"

	"github.com/jrsteele09/dayflow/session"
	"github.com/jrsteele09/dayflow/users"
)

const (
	LoginPath            = "/login"
	ChangePasswordPath   = "/change-password"
	HRHomePath           = "/hr/dashboard"
	EmployeeHomePath     = "/employee/dashboard"
	redirectFromQueryKey = "from"
)

type Kind int

const (
	Render Kind = iota
	Loading
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome for one navigation. Location is set for redirects; From is
// the originally requested path when redirecting to login.
type Decision struct {
	Kind     Kind
	Location string
	From     string
}

// Decide applies the rules in order, first match wins:
//  1. still loading: wait
//  2. signed out: login
//  3. first login: password change, unless already there
//  4. role resolved and not allowed: the role's home
//  5. render
//
// An unresolved role never triggers rule 4. That is a lenient default for the window
// before the role fetch completes, not an authorization boundary; the backend
// enforces access on every data call.
func Decide(snap session.Snapshot, path string, allowed []users.Role) Decision {
	switch {
	case snap.IsLoading:
		return Decision{Kind: Loading}
	case !snap.Authenticated:
		return Decision{Kind: Redirect, Location: LoginPath, From: path}
	case snap.FirstLogin && path != ChangePasswordPath:
		return Decision{Kind: Redirect, Location: ChangePasswordPath}
	case len(allowed) > 0 && snap.Role != nil && !slices.Contains(allowed, *snap.Role):
		return Decision{Kind: Redirect, Location: HomePath(*snap.Role)}
	}
	return Decision{Kind: Render}
}

// HomePath is the dashboard of a role
func HomePath(role users.Role) string {
	if role == users.RoleHR {
		return HRHomePath
	}
	return EmployeeHomePath
}

// LandingPath is where a signed-in user goes when no destination was requested.
// A user whose role could not be resolved lands on the employee home, which holds only
// their own records. This is a deliberate default, not an authorization decision: once
// the role resolves, Decide sends an HR user on to the HR home.
func LandingPath(snap session.Snapshot) string {
	if snap.FirstLogin {
		return ChangePasswordPath
	}
	if snap.Role == nil {
		return EmployeeHomePath
	}
	return HomePath(*snap.Role)
}

// LoginURL is the login path carrying from as the post-login destination
func LoginURL(from string) string {
	if !SafeLocalPath(from) || from == LoginPath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{redirectFromQueryKey: {from}}.Encode()
}

// FromQuery returns the post-login destination carried by a login URL, or ""
func FromQuery(values url.Values) string {
	from := values.Get(redirectFromQueryKey)
	if !SafeLocalPath(from) {
		return ""
	}
	return from
}

// SafeLocalPath reports whether p is a path on this site, never another host
func SafeLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Host == "" && u.Scheme == ""
}
