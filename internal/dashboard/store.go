// Package dashboard is a read-through cache over the aggregate dashboard
// statistics plus the quick actions exposed next to them.
package dashboard

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tangled.org/lewlew.social/lewctl/internal/audit"
	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/models"
)

// API is the slice of the gateway the dashboard store depends on.
type API interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	RecentUsers(ctx context.Context, limit int) (json.RawMessage, error)
	PendingReportsSummary(ctx context.Context) (json.RawMessage, error)
	SystemCheck(ctx context.Context) (json.RawMessage, error)
}

// State is an immutable snapshot handed to subscribers and views.
type State struct {
	Stats   *models.DashboardStats
	Loading bool
	Err     string
}

// Store holds the dashboard snapshot. The snapshot is replaced wholesale
// on every fetch; there is no field-level merging.
type Store struct {
	api    API
	trail  audit.Recorder
	actor  func() string
	onAuth func(error)
	log    zerolog.Logger

	mu        sync.Mutex
	stats     *models.DashboardStats
	loading   bool
	lastError string

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithAuditTrail records system checks in the local action trail.
func WithAuditTrail(trail audit.Recorder) Option {
	return func(s *Store) { s.trail = trail }
}

// WithActor supplies the identity written to audit entries.
func WithActor(actor func() string) Option {
	return func(s *Store) { s.actor = actor }
}

// WithAuthErrorHook forwards authentication failures to the session layer.
func WithAuthErrorHook(hook func(error)) Option {
	return func(s *Store) { s.onAuth = hook }
}

// New creates the store.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:  api,
		log:  log.With().Str("store", "dashboard").Logger(),
		subs: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchStats refreshes the aggregate snapshot.
func (s *Store) FetchStats(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()
	s.notify()

	stats, err := s.api.DashboardStats(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.mu.Unlock()
		s.notify()
		s.forwardAuthError(err)
		return err
	}
	s.stats = stats
	s.mu.Unlock()
	s.notify()
	return nil
}

// RecentUsers returns the most recently registered users. Quick actions
// pass their payload straight through; errors do not land in the store's
// error field.
func (s *Store) RecentUsers(ctx context.Context, limit int) (json.RawMessage, error) {
	raw, err := s.api.RecentUsers(ctx, limit)
	if err != nil {
		s.forwardAuthError(err)
		return nil, err
	}
	return raw, nil
}

// PendingSummary returns the pending-report overview.
func (s *Store) PendingSummary(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.api.PendingReportsSummary(ctx)
	if err != nil {
		s.forwardAuthError(err)
		return nil, err
	}
	return raw, nil
}

// SystemCheck triggers a server-side health sweep and records it in the
// local action trail.
func (s *Store) SystemCheck(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.api.SystemCheck(ctx)

	outcome := audit.OutcomeOK
	detail := ""
	if err != nil {
		outcome = audit.OutcomeError
		detail = gateway.Message(err)
	}
	s.record(ctx, detail, outcome)

	if err != nil {
		s.forwardAuthError(err)
		return nil, err
	}
	return raw, nil
}

// ClearError resets the last error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Stats:   s.stats,
		Loading: s.loading,
		Err:     s.lastError,
	}
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

func (s *Store) forwardAuthError(err error) {
	if s.onAuth != nil && gateway.IsAuth(err) {
		s.onAuth(err)
	}
}

func (s *Store) record(ctx context.Context, detail string, outcome audit.Outcome) {
	if s.trail == nil {
		return
	}

	actor := "anonymous"
	if s.actor != nil {
		if a := s.actor(); a != "" {
			actor = a
		}
	}

	entry := audit.Entry{
		Action:  audit.ActionSystemCheck,
		Actor:   actor,
		Detail:  detail,
		Outcome: outcome,
	}
	if err := s.trail.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("failed to record audit entry")
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
