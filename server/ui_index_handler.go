package server

import (
	"net/http"
)

// IndexHandler sends the site root to the login page, which forwards signed-in users
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteLogin, http.StatusFound)
	}
}

// NotFoundHandler renders the 404 page for every unmatched path
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, pageNotFound, http.StatusNotFound, pageData{
			Title: "Page not found",
			Data:  r.URL.Path,
		})
	}
}
