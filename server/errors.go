package server

import (
	"net/http"

	"github.com/jrsteele09/dayflow/guard"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/rs/zerolog/log"
)

// serviceError answers a failed page load. Data the viewer may not see sends them home.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errs.Is(err, errs.ErrForbidden):
		redirectSuccess(w, r, guard.LandingPath(snapshot(r)))
	case errs.Is(err, errs.ErrNotFound):
		s.NotFoundHandler()(w, r)
	default:
		log.Err(err).Str("path", r.URL.Path).Msg("Failed to load page data")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
	}
}

// actionMessage is what the user is told when a form action fails
func actionMessage(err error) string {
	var requestErr *errs.RequestError
	switch {
	case errs.As(err, &requestErr):
		return requestErr.Message
	case errs.Is(err, errs.ErrForbidden):
		return "You are not allowed to do that"
	case errs.Is(err, errs.ErrNotFound):
		return "That record no longer exists"
	case errs.Is(err, errs.ErrUnauthenticated):
		return "Your session has expired, please sign in again"
	}
	log.Err(err).Msg("Form action failed")
	return "Something went wrong, please try again"
}
