package server

import (
	"net/http"

	"github.com/jrsteele09/dayflow/hrdata"
	"github.com/jrsteele09/dayflow/users"
	"github.com/jrsteele09/dayflow/internal/utils"
)

// ProfilePageData is the model of both profile pages
type ProfilePageData struct {
	Profile   *users.Profile
	RoleLabel string
	Action    string
	Payslips  []*hrdata.Payroll // employees only
}

// ProfilePageHandler renders the signed-in user's profile; action is the form target
func (s *Server) ProfilePageHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := snapshot(r)
		data := ProfilePageData{
			Profile: snap.Profile,
			Action:  action,
		}
		if snap.Role != nil {
			data.RoleLabel = snap.Role.Label()
		}
		if action == RouteEmployeeProfile {
			payslips, err := s.hr.Payslips(actor(r), snap.UserID())
			if err != nil {
				s.serviceError(w, r, err)
				return
			}
			data.Payslips = payslips
		}

		s.render(w, r, pageProfile, http.StatusOK, pageData{
			Title: "My profile",
			Nav:   navFor(snap, r.URL.Path),
			Data:  data,
		})
	}
}

// ProfileUpdateHandler saves the editable profile fields and refreshes the session's
// copy of the profile
func (s *Server) ProfileUpdateHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var update hrdata.ProfileUpdate
		if r.PostForm.Has("phone") {
			update.Phone = utils.Ptr(r.PostForm.Get("phone"))
		}
		if r.PostForm.Has("avatar_url") {
			update.AvatarURL = utils.Ptr(r.PostForm.Get("avatar_url"))
		}

		if _, err := s.hr.UpdateProfile(actor(r), update); err != nil {
			redirectWithError(w, r, action, actionMessage(err))
			return
		}
		browserSession(r).Store.RefreshProfile(r.Context())
		redirectWithNotice(w, r, action, "Profile updated")
	}
}
