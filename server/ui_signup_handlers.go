package server

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/jrsteele09/dayflow/guard"
	"github.com/jrsteele09/dayflow/session"
	"github.com/jrsteele09/dayflow/users"
)

// ValidatePasswordHandler returns inline strength feedback for htmx (POST /api/validate-password)
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		password := r.FormValue("new_password")
		if password == "" {
			password = r.FormValue("password")
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if password == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := users.ValidatePasswordStrength(password); err != nil {
			w.Header().Set("HX-Trigger", `{"passwordInvalid": ""}`)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `<span class="feedback feedback-error">%s</span>`, html.EscapeString(err.Error()))
			return
		}

		w.Header().Set("HX-Trigger", `{"passwordValid": ""}`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `<span class="feedback feedback-ok">Strong password</span>`)
	}
}

// SignupPageData preserves the non-secret fields of a rejected sign-up
type SignupPageData struct {
	Name    string
	Email   string
	Company string
	Phone   string
	Role    users.Role
	Roles   []users.Role
}

// SignupPageHandler displays the sign-up form (GET /signup)
func (s *Server) SignupPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		role, err := users.ParseRole(query.Get("role"))
		if err != nil {
			role = users.RoleEmployee
		}
		s.render(w, r, pageSignup, http.StatusOK, pageData{
			Title: "Create account",
			Data: SignupPageData{
				Name:    query.Get("name"),
				Email:   query.Get("email"),
				Company: query.Get("company"),
				Phone:   query.Get("phone"),
				Role:    role,
				Roles:   []users.Role{users.RoleEmployee, users.RoleHR},
			},
		})
	}
}

// SignupSubmissionHandler creates the account and signs the browser in (POST /signup)
func (s *Server) SignupSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		req := session.SignupRequest{
			Name:     strings.TrimSpace(r.FormValue("name")),
			Email:    strings.TrimSpace(r.FormValue("email")),
			Company:  strings.TrimSpace(r.FormValue("company")),
			Phone:    strings.TrimSpace(r.FormValue("phone")),
			Password: r.FormValue("password"),
		}
		confirm := r.FormValue("confirm_password")

		back := RouteSignup
		for _, field := range []struct{ key, value string }{
			{"name", req.Name}, {"email", req.Email}, {"company", req.Company}, {"phone", req.Phone}, {"role", r.FormValue("role")},
		} {
			if field.value != "" {
				back = withQuery(back, field.key, field.value)
			}
		}

		role, err := users.ParseRole(r.FormValue("role"))
		if err != nil {
			redirectWithError(w, r, back, "Please choose a valid role")
			return
		}
		req.Role = role

		if req.Name == "" || req.Email == "" || req.Password == "" {
			redirectWithError(w, r, back, "Name, email and password are required")
			return
		}
		if req.Password != confirm {
			redirectWithError(w, r, back, "Passwords do not match")
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			redirectWithError(w, r, back, err.Error())
			return
		}

		store := browserSession(r).Store
		result := store.Signup(r.Context(), req)
		if !result.Success {
			redirectWithError(w, r, back, result.Error)
			return
		}
		redirectSuccess(w, r, guard.LandingPath(store.Snapshot()))
	}
}

// ChangePasswordPageData marks a forced first-login change
type ChangePasswordPageData struct {
	Required bool
}

// ChangePasswordPageHandler renders the password change form (GET /change-password)
func (s *Server) ChangePasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := snapshot(r)
		s.render(w, r, pageChangePassword, http.StatusOK, pageData{
			Title: "Change password",
			Nav:   navFor(snap, r.URL.Path),
			Data:  ChangePasswordPageData{Required: snap.FirstLogin},
		})
	}
}

// ChangePasswordSubmissionHandler verifies the current password, sets the new one and
// completes a pending first-login change (POST /change-password)
func (s *Server) ChangePasswordSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		currentPassword := r.FormValue("current_password")
		newPassword := r.FormValue("new_password")
		confirmPassword := r.FormValue("confirm_password")

		if currentPassword == "" || newPassword == "" || confirmPassword == "" {
			redirectWithError(w, r, RouteChangePassword, "All fields are required")
			return
		}
		if newPassword != confirmPassword {
			redirectWithError(w, r, RouteChangePassword, "New passwords do not match")
			return
		}
		if err := users.ValidatePasswordStrength(newPassword); err != nil {
			redirectWithError(w, r, RouteChangePassword, err.Error())
			return
		}

		store := browserSession(r).Store
		result := store.ChangePassword(r.Context(), currentPassword, newPassword)
		if !result.Success {
			redirectWithError(w, r, RouteChangePassword, result.Error)
			return
		}
		redirectWithNotice(w, r, guard.LandingPath(store.Snapshot()), "Password updated")
	}
}
