package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/dayflow/hrdata"
	"github.com/jrsteele09/dayflow/server/loginsession"
	"github.com/jrsteele09/dayflow/session"
	"github.com/jrsteele09/dayflow/users"
)

// sessionCookieName is the cookie binding a browser to its server-side session store
const sessionCookieName = "dayflow_session"

type contextKey int

const (
	browserSessionKey contextKey = iota
	snapshotKey
)

func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func withBrowserSession(ctx context.Context, bs *loginsession.Session) context.Context {
	return context.WithValue(ctx, browserSessionKey, bs)
}

// browserSession returns the session attached by BrowserSessionMiddleware
func browserSession(r *http.Request) *loginsession.Session {
	bs, _ := r.Context().Value(browserSessionKey).(*loginsession.Session)
	return bs
}

func withSnapshot(ctx context.Context, snap session.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey, snap)
}

// snapshot returns the snapshot the guard rendered the request against
func snapshot(r *http.Request) session.Snapshot {
	snap, _ := r.Context().Value(snapshotKey).(session.Snapshot)
	return snap
}

// actor is the signed-in user as the HR service sees them
func actor(r *http.Request) hrdata.Actor {
	snap := snapshot(r)
	return hrdata.Actor{UserID: snap.UserID(), Role: snap.Role}
}

func navFor(snap session.Snapshot, path string) *navData {
	nav := &navData{
		Name:     snap.DisplayName(),
		Initials: snap.Initials(),
		Path:     path,
	}
	if snap.Identity != nil {
		nav.Email = snap.Identity.Email
	}
	if snap.Role != nil {
		nav.RoleLabel = snap.Role.Label()
		nav.IsHR = *snap.Role == users.RoleHR
	}
	return nav
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withQuery(path, "error", errorMsg))
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	redirectSuccess(w, r, withQuery(path, "notice", notice))
}

// withQuery appends key=value to path, which may already carry a query
func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
