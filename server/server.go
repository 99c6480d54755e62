package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/dayflow/backend"
	"github.com/jrsteele09/dayflow/hrdata"
	"github.com/jrsteele09/dayflow/internal/config"
	"github.com/jrsteele09/dayflow/server/loginsession"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// Deps are the services the portal renders and acts on
type Deps struct {
	Clients         backend.ClientFactory
	HR              *hrdata.Service
	BrowserSessions loginsession.Repo
}

type Server struct {
	env             string // Environment (e.g., "DEV", "PROD")
	mux             *http.ServeMux
	routes          []string
	config          config.Config
	clients         backend.ClientFactory
	hr              *hrdata.Service
	browserSessions loginsession.Repo
	pages           map[string]*template.Template
	gzip            func(http.Handler) http.HandlerFunc
	nowTime         func() time.Time
}

// gzipMinSize is the smallest static body worth compressing
const gzipMinSize = 256

type Option func(*Server)

// WithNowTime overrides the clock used for session activity and the HR views
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, deps Deps, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("[server.New] backend client factory is required")
	}
	if deps.HR == nil {
		return nil, errors.New("[server.New] hr service is required")
	}
	if deps.BrowserSessions == nil {
		return nil, errors.New("[server.New] browser session repo is required")
	}

	s := &Server{
		env:             cfg.GetEnv(),
		mux:             http.NewServeMux(),
		config:          cfg,
		clients:         deps.Clients,
		hr:              deps.HR,
		browserSessions: deps.BrowserSessions,
		nowTime:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to parse templates: %w", err)
	}
	s.pages = pages

	s.gzip, err = gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to create gzip wrapper: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RunJanitor evicts idle browser sessions every interval until ctx is done
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdleSessions(); n > 0 {
				log.Info().Int("evicted", n).Int("remaining", s.browserSessions.Len()).Msg("Evicted idle browser sessions")
			}
		}
	}
}

// EvictIdleSessions closes and removes the browser sessions idle for longer than the
// configured maximum session age.
func (s *Server) EvictIdleSessions() int {
	cutoff := s.nowTime().Add(-s.config.GetMaxSessionAge())
	var evicted int
	for _, bs := range s.browserSessions.List() {
		if !bs.LastSeen().Before(cutoff) {
			continue
		}
		if err := s.browserSessions.Delete(bs.ID); err != nil {
			log.Err(err).Str("session", bs.ID).Msg("Failed to delete browser session")
			continue
		}
		bs.Store.Close()
		evicted++
	}
	return evicted
}

// Close closes every browser session's store
func (s *Server) Close() {
	for _, bs := range s.browserSessions.List() {
		_ = s.browserSessions.Delete(bs.ID)
		bs.Store.Close()
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}

// getScheme determines the scheme (http/https), honouring a proxy's forwarded header
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
