package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/dayflow/guard"
	"github.com/jrsteele09/dayflow/server/loginsession"
	"github.com/jrsteele09/dayflow/session"
	"github.com/jrsteele09/dayflow/users"
	"github.com/rs/zerolog/log"
)

// BrowserSessionMiddleware attaches the browser's session, starting a new one with a
// fresh backend client when the cookie is missing or no longer known.
func (s *Server) BrowserSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := s.browserSessionFor(w, r)
		if err != nil {
			log.Err(err).Msg("Failed to start browser session")
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		next(w, r.WithContext(withBrowserSession(r.Context(), bs)))
	}
}

func (s *Server) browserSessionFor(w http.ResponseWriter, r *http.Request) (*loginsession.Session, error) {
	now := s.nowTime()
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if bs, err := s.browserSessions.Get(cookie.Value); err == nil {
			bs.Touch(now)
			return bs, nil
		}
	}

	store, err := session.New(context.Background(), s.clients.NewClient(),
		session.WithSignupSettleDelay(s.config.GetSignupSettleDelay()),
		session.WithFetchTimeout(s.config.GetFetchTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server browserSessionFor] failed to create session store: %w", err)
	}
	bs := loginsession.NewSession(uuid.NewString(), store, now)
	if err := s.browserSessions.Upsert(bs.ID, bs); err != nil {
		store.Close()
		return nil, fmt.Errorf("[Server browserSessionFor] failed to save browser session: %w", err)
	}
	s.SetSessionCookie(w, r, bs.ID)
	return bs, nil
}

// Protect runs the route guard for a view. With no roles any signed-in user may see
// the view. Requires BrowserSessionMiddleware to have run first.
func (s *Server) Protect(allowed ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			bs := browserSession(r)
			if bs == nil {
				http.Error(w, "session not started", http.StatusInternalServerError)
				return
			}

			snap := s.currentSnapshot(r.Context(), bs.Store)
			if len(allowed) > 0 && snap.Authenticated && !snap.IsLoading && snap.Role == nil {
				// an earlier role fetch failed; retry it once for role-restricted pages
				bs.Store.RefreshProfile(r.Context())
				snap = bs.Store.Snapshot()
			}
			decision := guard.Decide(snap, r.URL.Path, allowed)
			switch decision.Kind {
			case guard.Loading:
				s.renderLoading(w, r)
			case guard.Redirect:
				location := decision.Location
				if location == guard.LoginPath {
					location = guard.LoginURL(requestedPath(r, decision.From))
				}
				redirectSuccess(w, r, location)
			default:
				next(w, r.WithContext(withSnapshot(r.Context(), snap)))
			}
		}
	}
}

// currentSnapshot waits a bounded time for the store's initial check and renews an
// expired access token before the guard sees the session.
func (s *Server) currentSnapshot(ctx context.Context, store *session.Store) session.Snapshot {
	timer := time.NewTimer(s.config.GetSessionReadyWait())
	defer timer.Stop()
	select {
	case <-store.Ready():
	case <-timer.C:
	case <-ctx.Done():
	}

	snap := store.Snapshot()
	if snap.Authenticated && snap.Identity.Expired(s.nowTime()) {
		if err := store.RefreshSession(ctx); err != nil {
			log.Info().Err(err).Str("user", snap.UserID()).Msg("Session refresh failed")
		}
		snap = store.Snapshot()
	}
	return snap
}

// requestedPath is the destination to come back to after login. Only page views are
// remembered; a form post resumes at the page it came from.
func requestedPath(r *http.Request, from string) string {
	if r.Method == http.MethodGet {
		if r.URL.RawQuery != "" {
			return from + "?" + r.URL.RawQuery
		}
		return from
	}
	return ""
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", "1")
	s.render(w, r, pageLoading, http.StatusOK, pageData{Title: "Loading"})
}
