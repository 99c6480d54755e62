package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/dayflow/guard"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Email string // preserved on error
	From  string // post-login destination
}

// LoginPageHandler displays the login page (GET /login). A signed-in user is sent on
// to their landing page instead.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs := browserSession(r)
		snap := s.currentSnapshot(r.Context(), bs.Store)
		query := r.URL.Query()
		from := guard.FromQuery(query)

		if !snap.IsLoading && snap.Authenticated {
			redirectSuccess(w, r, destinationAfterLogin(snap.FirstLogin, from, guard.LandingPath(snap)))
			return
		}

		s.render(w, r, pageLogin, http.StatusOK, pageData{
			Title: "Sign in",
			Data: LoginPageData{
				Email: query.Get("email"),
				From:  from,
			},
		})
	}
}

// LoginSubmissionHandler processes the login form submission (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		from := guard.FromQuery(r.PostForm)
		loginURL := withQuery(guard.LoginURL(from), "email", email)

		if email == "" || password == "" {
			redirectWithError(w, r, loginURL, "Please enter your email and password")
			return
		}

		store := browserSession(r).Store
		result := store.Login(r.Context(), email, password)
		if !result.Success {
			redirectWithError(w, r, loginURL, result.Error)
			return
		}

		snap := store.Snapshot()
		redirectSuccess(w, r, destinationAfterLogin(snap.FirstLogin, from, guard.LandingPath(snap)))
	}
}

// destinationAfterLogin sends a first login to the password change, then to the
// originally requested page, then to the role's home.
func destinationAfterLogin(firstLogin bool, from, landing string) string {
	switch {
	case firstLogin:
		return guard.ChangePasswordPath
	case from != "":
		return from
	}
	return landing
}

// LogoutHandler signs the browser session out (POST /logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		browserSession(r).Store.Logout(r.Context())
		redirectSuccess(w, r, RouteLogin)
	}
}
