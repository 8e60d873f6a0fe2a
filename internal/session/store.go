// Package session holds the authenticated admin identity and its
// credential lifecycle. The store is a two-state machine: Anonymous (no
// session) and Authenticated (session with a non-empty token in the
// credential store).
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/models"
)

// nowFunc is swapped out by expiry tests.
var nowFunc = time.Now

// AuthAPI is the slice of the gateway the session store depends on.
type AuthAPI interface {
	Login(ctx context.Context, login, password string) (*gateway.LoginResult, error)
}

// Credentials reads and clears the persisted bearer token. Writing happens
// inside the gateway on successful login.
type Credentials interface {
	Token() (string, error)
	DeleteToken() error
}

// Projections persists the non-secret session projection.
type Projections interface {
	Load() (*models.SessionProjection, error)
	Save(p models.SessionProjection) error
	Delete() error
}

// Options tunes behavior the product has left open.
type Options struct {
	// LogoutOn401 resets the store to Anonymous when any store reports an
	// authentication failure through HandleAuthError. Off by default: the
	// error string surfaces and the session stays.
	LogoutOn401 bool

	// DropExpiredOnRestore discards a restored session when the mirrored
	// token is a JWT whose exp claim has passed. The claim is read without
	// signature verification; the server remains the authority.
	DropExpiredOnRestore bool
}

// State is an immutable snapshot handed to subscribers and views.
type State struct {
	User          *models.AdminUser
	Authenticated bool
	Loading       bool
	Err           string
}

// Store is the session state container. All mutations are sequential
// point mutations; subscribers are notified after each one.
type Store struct {
	api         AuthAPI
	creds       Credentials
	projections Projections
	opts        Options
	log         zerolog.Logger

	mu            sync.RWMutex
	user          *models.AdminUser
	authenticated bool
	loading       bool
	lastError     string

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates the store and restores any persisted projection.
func New(api AuthAPI, creds Credentials, projections Projections, opts Options) *Store {
	s := &Store{
		api:         api,
		creds:       creds,
		projections: projections,
		opts:        opts,
		log:         log.With().Str("store", "session").Logger(),
		subs:        make(map[int]func(State)),
	}
	s.restore()
	return s
}

// restore loads the persisted projection. Token validity is never checked
// locally; the first authenticated call answering 401 surfaces the
// problem. The one opt-in exception is DropExpiredOnRestore.
func (s *Store) restore() {
	projection, err := s.projections.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load persisted session")
		return
	}
	if projection == nil || !projection.Authenticated {
		return
	}

	if s.opts.DropExpiredOnRestore && s.tokenExpired() {
		s.log.Info().Msg("persisted session expired, dropping")
		if err := s.projections.Delete(); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete expired projection")
		}
		if err := s.creds.DeleteToken(); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete expired token")
		}
		return
	}

	user := projection.User
	s.user = &user
	s.authenticated = true
	s.log.Info().Str("email", user.Email).Msg("session restored")
}

// tokenExpired inspects the mirrored token's exp claim. Opaque (non-JWT)
// tokens and JWTs without an exp claim count as unexpired.
func (s *Store) tokenExpired() bool {
	token, err := s.creds.Token()
	if err != nil || token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(nowFunc())
}

// Login exchanges credentials for a session. Returns true on success.
// Concurrent calls are not serialized here; the view layer disables the
// submit control while Loading is set.
func (s *Store) Login(ctx context.Context, login, password string) bool {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()
	s.notify()

	result, err := s.api.Login(ctx, login, password)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.user = nil
		s.authenticated = false
		s.mu.Unlock()
		s.notify()
		return false
	}

	user := result.User
	s.user = &user
	s.authenticated = true
	s.lastError = ""
	s.mu.Unlock()
	s.notify()

	if err := s.projections.Save(models.SessionProjection{
		Authenticated: true,
		User:          user,
	}); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist session projection")
	}

	s.log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("logged in")
	return true
}

// Logout transitions to Anonymous synchronously. Both the persisted
// projection and the mirrored token are cleared; no network call is made.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.lastError = ""
	s.mu.Unlock()

	if err := s.creds.DeleteToken(); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete token")
	}
	if err := s.projections.Delete(); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete session projection")
	}

	s.log.Info().Msg("logged out")
	s.notify()
}

// ClearError resets the last error message without changing state.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}

// HandleAuthError is the shared hook other stores call when a gateway
// error turns out to be an authentication failure. With LogoutOn401 off
// it does nothing; the error already surfaced on the calling store.
func (s *Store) HandleAuthError(err error) {
	if !s.opts.LogoutOn401 || !gateway.IsAuth(err) {
		return
	}

	s.mu.RLock()
	authenticated := s.authenticated
	s.mu.RUnlock()
	if !authenticated {
		return
	}

	s.log.Info().Msg("authentication failure observed, logging out")
	s.Logout()
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	state := State{
		Authenticated: s.authenticated,
		Loading:       s.loading,
		Err:           s.lastError,
	}
	if s.user != nil {
		user := *s.user
		state.User = &user
	}
	return state
}

// Authenticated reports whether a session is present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Subscribe registers fn to run after every state change. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	state := s.Snapshot()

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
