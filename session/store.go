// Package session holds the authentication state of one browser session: the backend
// identity, the profile and role fetched for it, and the first-login flag.
//
// A Store is the only writer of that state. Consumers read it through Snapshot or
// receive every change through Watch.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/dayflow/backend"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultSettleDelay  = 500 * time.Millisecond
	defaultFetchTimeout = 10 * time.Second
)

// Session is the authentication state
type Session struct {
	Authenticated bool
	Identity      *backend.Identity
	IsLoading     bool // true until the initial session check has finished
}

// Snapshot is a read-only copy of the store state
type Snapshot struct {
	Session
	Profile    *users.Profile
	Role       *users.Role // nil while unresolved
	FirstLogin bool
}

func (s Snapshot) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UserID
}

// DisplayName is the profile name, or "User" before the profile has loaded
func (s Snapshot) DisplayName() string {
	if s.Profile == nil || s.Profile.Name == "" {
		return "User"
	}
	return s.Profile.Name
}

func (s Snapshot) Initials() string {
	return s.Profile.Initials()
}

// Result is the outcome of an authentication call. Error is set when Success is false.
type Result struct {
	Success bool
	Error   string
	Role    *users.Role
}

// SignupRequest is the sign-up form. Everything but the credentials is passed to the
// backend as provisioning metadata.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Company  string
	Phone    string
	Role     users.Role
}

// Store owns the session state of one browser session.
//
// Session changes arrive from the backend client's listener while the client is still
// dispatching, and the client cannot be called from there. The listener therefore only
// records the identity and posts the profile and role fetch onto the store's task queue,
// which runs it once the dispatch has returned.
//
// Every fetch carries the generation current when it started. Logout, a nil identity and
// a switch to another user start a new generation, and results from older generations
// are dropped.
type Store struct {
	client       backend.Client
	queue        *taskQueue
	settleDelay  time.Duration
	fetchTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc

	mu          sync.RWMutex
	session     Session
	profile     *users.Profile
	role        *users.Role
	firstLogin  bool
	generation  uint64
	sessionSeq  uint64 // bumped on every session write
	watchers    map[uint64]chan Snapshot
	nextWatcher uint64
	closed      bool

	ready       chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithSignupSettleDelay sets the pause between sign-up and the first profile fetch
func WithSignupSettleDelay(d time.Duration) Option {
	return func(s *Store) {
		s.settleDelay = d
	}
}

// WithFetchTimeout bounds each profile and role fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.fetchTimeout = d
	}
}

// New subscribes to the client's session changes and starts the initial session check.
// ctx bounds the store's background work; Close ends it.
func New(ctx context.Context, client backend.Client, options ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("[session.New] client is required")
	}

	s := &Store{
		client:       client,
		settleDelay:  defaultSettleDelay,
		fetchTimeout: defaultFetchTimeout,
		session:      Session{IsLoading: true},
		watchers:     make(map[uint64]chan Snapshot),
		ready:        make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.queue = newTaskQueue()
	s.unsubscribe = client.Subscribe(s.onSessionChanged)
	s.queue.Post(s.initialCheck)
	return s, nil
}

// Ready is closed once the initial session check, including its profile and role
// fetch, has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) initialCheck() {
	defer s.finishLoading()

	s.mu.RLock()
	seq := s.sessionSeq
	s.mu.RUnlock()

	identity, err := s.client.CurrentSession(s.ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Initial session check failed")
		identity = nil
	}

	s.mu.Lock()
	if s.sessionSeq != seq {
		// a notification got there first and is newer
		s.mu.Unlock()
		return
	}
	s.session.Authenticated = identity != nil
	s.session.Identity = identity
	gen := s.generation
	s.notifyLocked()
	s.mu.Unlock()

	if identity != nil {
		s.fetchUserData(s.ctx, identity.UserID, gen)
	}
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.IsLoading {
		return
	}
	s.session.IsLoading = false
	close(s.ready)
	s.notifyLocked()
}

// onSessionChanged is the backend listener. It runs inside the client's dispatch and
// must not call the client.
func (s *Store) onSessionChanged(identity *backend.Identity) {
	s.mu.Lock()
	s.sessionSeq++
	previous := s.session.Identity
	if identity == nil {
		s.generation++
		s.session.Authenticated = false
		s.session.Identity = nil
		s.profile, s.role = nil, nil
		s.firstLogin = false
	} else {
		if previous != nil && previous.UserID != identity.UserID {
			s.generation++
			s.profile, s.role = nil, nil
			s.firstLogin = false
		}
		s.session.Authenticated = true
		s.session.Identity = identity
	}
	gen := s.generation
	s.notifyLocked()
	s.mu.Unlock()

	if identity != nil {
		userID := identity.UserID
		s.queue.Post(func() {
			s.fetchUserData(s.ctx, userID, gen)
		})
	}
}

// fetchUserData fetches profile and role together and applies them if gen is still
// current. A failed fetch is logged and leaves the previous value in place.
func (s *Store) fetchUserData(ctx context.Context, userID string, gen uint64) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	var (
		wg                 sync.WaitGroup
		profile            *users.Profile
		role               *users.Role
		profileErr, roleErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = s.client.FetchProfile(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		role, roleErr = s.client.FetchRole(ctx, userID)
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		log.Debug().Str("user_id", userID).Msg("Discarding stale profile fetch")
		return
	}
	if profileErr != nil {
		log.Err(profileErr).Str("user_id", userID).Msg("Failed to fetch profile")
	} else {
		s.profile = profile
	}
	if roleErr != nil {
		log.Err(roleErr).Str("user_id", userID).Msg("Failed to fetch role")
	} else {
		s.role = role
	}
	s.notifyLocked()
}

// Login signs in and waits for the profile and role of the returned identity.
// Authentication itself is recorded by the backend's change notification.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	identity, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("Sign-in failed")
		return Result{Error: loginMessage(err)}
	}

	s.mu.Lock()
	s.firstLogin = identity.PasswordChangeRequired
	gen := s.generation
	s.notifyLocked()
	s.mu.Unlock()

	s.fetchUserData(ctx, identity.UserID, gen)
	return Result{Success: true, Role: s.Role()}
}

// Signup creates the account, waits for the backend to provision the profile and role,
// then fetches them. The returned role is the one requested.
func (s *Store) Signup(ctx context.Context, req SignupRequest) Result {
	identity, err := s.client.SignUp(ctx, req.Email, req.Password, backend.SignUpMetadata{
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
		Role:    req.Role,
	})
	if err != nil {
		log.Info().Err(err).Str("email", req.Email).Msg("Sign-up failed")
		return Result{Error: signupMessage(err)}
	}

	s.mu.Lock()
	s.firstLogin = true
	gen := s.generation
	s.notifyLocked()
	s.mu.Unlock()

	role := utils.Ptr(req.Role)
	select {
	case <-time.After(s.settleDelay):
	case <-ctx.Done():
		return Result{Success: true, Role: role}
	}
	s.fetchUserData(ctx, identity.UserID, gen)
	return Result{Success: true, Role: role}
}

// Logout signs out and clears all state, whether or not the sign-out call succeeded.
// Fetches still in flight are discarded when they finish.
func (s *Store) Logout(ctx context.Context) {
	if err := s.client.SignOut(ctx); err != nil {
		log.Warn().Err(err).Msg("Sign-out failed, clearing session anyway")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.sessionSeq++
	s.session.Authenticated = false
	s.session.Identity = nil
	s.profile, s.role = nil, nil
	s.firstLogin = false
	s.notifyLocked()
}

// CompletePasswordChange clears the first-login flag
func (s *Store) CompletePasswordChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstLogin = false
	s.notifyLocked()
}

// ChangePassword updates the password through the backend and, on success, completes
// the first-login password change.
func (s *Store) ChangePassword(ctx context.Context, currentPassword, newPassword string) Result {
	if err := s.client.UpdatePassword(ctx, currentPassword, newPassword); err != nil {
		log.Info().Err(err).Msg("Password change failed")
		return Result{Error: passwordMessage(err)}
	}
	s.CompletePasswordChange()
	return Result{Success: true, Role: s.Role()}
}

// RefreshProfile re-fetches profile and role. It does nothing when signed out.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.RLock()
	identity := s.session.Identity
	gen := s.generation
	s.mu.RUnlock()

	if identity == nil {
		return
	}
	s.fetchUserData(ctx, identity.UserID, gen)
}

// RefreshSession renews the backend session. The new identity, or the end of the
// session on failure, arrives through the change notification.
func (s *Store) RefreshSession(ctx context.Context) error {
	_, err := s.client.RefreshSession(ctx)
	return errors.Wrap(err, "[session.Store.RefreshSession]")
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated
}

func (s *Store) User() *backend.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Identity.Clone()
}

func (s *Store) Profile() *users.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return utils.Clone(s.profile)
}

func (s *Store) Role() *users.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return utils.Clone(s.role)
}

func (s *Store) IsFirstLogin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstLogin
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsLoading
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Watch delivers the current snapshot and then one per change. A slow reader only
// sees the latest snapshot. The channel is closed by cancel or Close.
func (s *Store) Watch() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if w, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(w)
			}
		})
	}
}

// Flush waits for background work queued so far, such as fetches posted by change
// notifications.
func (s *Store) Flush() {
	s.queue.Flush()
}

// Close unsubscribes from the client and stops background work. Snapshots stay readable.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.cancel()
		s.queue.Close()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		for id, w := range s.watchers {
			delete(s.watchers, id)
			close(w)
		}
		if s.session.IsLoading {
			s.session.IsLoading = false
			close(s.ready)
		}
	})
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Session: Session{
			Authenticated: s.session.Authenticated,
			Identity:      s.session.Identity.Clone(),
			IsLoading:     s.session.IsLoading,
		},
		Profile:    utils.Clone(s.profile),
		Role:       utils.Clone(s.role),
		FirstLogin: s.firstLogin,
	}
}

// notifyLocked hands the current snapshot to every watcher, replacing any snapshot
// the watcher has not read yet. Caller holds s.mu.
func (s *Store) notifyLocked() {
	if len(s.watchers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, w := range s.watchers {
		select {
		case <-w:
		default:
		}
		w <- snap
	}
}
