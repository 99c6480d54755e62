package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/dayflow/backend"
	"github.com/jrsteele09/dayflow/backend/local"
	"github.com/jrsteele09/dayflow/backend/remote"
	"github.com/jrsteele09/dayflow/hrdata"
	fakehrrepo "github.com/jrsteele09/dayflow/hrdata/repofake"
	"github.com/jrsteele09/dayflow/internal/config"
	"github.com/jrsteele09/dayflow/internal/demo"
	"github.com/jrsteele09/dayflow/server"
	"github.com/jrsteele09/dayflow/server/loginsession"
	"github.com/jrsteele09/dayflow/token"
	"github.com/jrsteele09/dayflow/token/refresh"
	refreshrepofake "github.com/jrsteele09/dayflow/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/dayflow/users/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server, restarting")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userRepo := fakeuserrepo.NewFakeUserRepo()
	hrRepo := fakehrrepo.NewFakeHRRepo()

	clients, err := newClientFactory(ctx, c, userRepo, hrRepo)
	if err != nil {
		return err
	}
	hr, err := hrdata.NewService(hrRepo, userRepo)
	if err != nil {
		return fmt.Errorf("hrdata.NewService: %w", err)
	}

	portal, err := server.New(c, server.Deps{
		Clients:         clients,
		HR:              hr,
		BrowserSessions: loginsession.NewInMemoryRepo(),
	})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer portal.Close()
	go portal.RunJanitor(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           portal,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newClientFactory builds the configured backend. The local backend keeps its tables in
// memory and is seeded with the demo accounts when enabled.
func newClientFactory(ctx context.Context, c config.Config, userRepo *fakeuserrepo.FakeUserRepo, hrRepo hrdata.Repo) (backend.ClientFactory, error) {
	switch c.GetBackendKind() {
	case config.BackendOIDC:
		provider, err := remote.NewProvider(ctx, remote.Config{
			Issuer:       c.GetOIDCIssuer(),
			ClientID:     c.GetOIDCClientID(),
			ClientSecret: c.GetOIDCClientSecret(),
			Scopes:       c.GetOIDCScopes(),
		})
		if err != nil {
			return nil, fmt.Errorf("remote.NewProvider: %w", err)
		}
		log.Info().Str("issuer", c.GetOIDCIssuer()).Msg("Using OpenID Connect backend")
		return provider, nil

	case config.BackendLocal:
		tokens, err := token.New(c.GetJWTSecret(), c.GetJWTIssuer(), c.GetAccessTokenExpiry())
		if err != nil {
			return nil, fmt.Errorf("token.New: %w", err)
		}
		provider, err := local.NewProvider(local.Repos{
			Users:    userRepo,
			Profiles: userRepo,
			Roles:    userRepo,
		}, tokens, refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), c.GetRefreshTokenExpiry()))
		if err != nil {
			return nil, fmt.Errorf("local.NewProvider: %w", err)
		}
		if c.GetSeedDemoData() {
			if err := demo.Seed(provider, hrRepo, time.Now()); err != nil {
				return nil, fmt.Errorf("demo.Seed: %w", err)
			}
			log.Info().Str("hr", demo.HREmail).Str("employee", demo.EmployeeEmail).Msg("Demo accounts ready")
		}
		log.Info().Msg("Using local backend")
		return provider, nil
	}
	return nil, fmt.Errorf("unknown backend %q", c.GetBackendKind())
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
