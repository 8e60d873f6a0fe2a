// Package reports keeps a displayed page of reports consistent with the
// moderator's filter state. Every filter or page change issues exactly one
// fetch; results of superseded fetches are discarded by sequence number so
// a slow earlier response can never overwrite a newer one.
package reports

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tangled.org/lewlew.social/lewctl/internal/audit"
	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/metrics"
	"tangled.org/lewlew.social/lewctl/internal/models"
)

// PageSize is the fixed server page size.
const PageSize = 10

// ErrDeleteAborted is returned when the operator declines the delete
// confirmation. No request is issued and no state changes.
var ErrDeleteAborted = errors.New("post deletion aborted")

// AIFilter is the client-only post-filter over AutoResolved. It is never
// sent to the API.
type AIFilter string

const (
	AIFilterAll         AIFilter = ""
	AIFilterResolved    AIFilter = "ai_resolved"
	AIFilterNotResolved AIFilter = "not_ai_resolved"
)

// Filter is the moderator's current query over the report collection.
// Not persisted across sessions.
type Filter struct {
	Status      string // ""|pending|resolved|rejected
	Reason      string // "" = any
	AIProcessed AIFilter
	Page        int // 1-based
}

// API is the slice of the gateway the reports store depends on.
type API interface {
	ListReports(ctx context.Context, q gateway.ReportListQuery) (*models.ReportsPage, error)
	UpdateReportStatus(ctx context.Context, reportID string, status models.ReportStatus, comment string) error
	DeletePost(ctx context.Context, postID string) error
}

// State is an immutable snapshot handed to subscribers and views.
type State struct {
	Filter     Filter
	Reports    []models.Report
	TotalPages int
	TotalCount int // unfiltered server total
	Loading    bool
	Err        string
}

// Store is the report moderation state container.
type Store struct {
	api     API
	trail   audit.Recorder          // nil disables the local action trail
	confirm func(postID string) bool // must return true before a delete is issued
	actor   func() string            // audit attribution; nil -> "anonymous"
	onAuth  func(error)              // shared auth-failure hook; may be nil
	log     zerolog.Logger

	mu         sync.Mutex
	filter     Filter
	visible    []models.Report
	totalPages int
	totalCount int
	loading    bool
	lastError  string
	seq        uint64 // sequence of the most recently issued fetch

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithAuditTrail records successful and failed moderation actions locally.
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

// New creates the store. confirm guards the destructive delete-post action
// and must not be nil.
func New(api API, confirm func(postID string) bool, opts ...Option) *Store {
	s := &Store{
		api:     api,
		confirm: confirm,
		log:     log.With().Str("store", "reports").Logger(),
		filter:  Filter{Page: 1},
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFilter replaces the whole filter in one step and re-fetches once.
// Used by one-shot views that collect every field before querying.
func (s *Store) SetFilter(ctx context.Context, f Filter) error {
	if f.Page < 1 {
		f.Page = 1
	}
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetStatus changes the status filter and re-fetches.
func (s *Store) SetStatus(ctx context.Context, status string) error {
	s.mu.Lock()
	s.filter.Status = status
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetReason changes the reason filter and re-fetches.
func (s *Store) SetReason(ctx context.Context, reason string) error {
	s.mu.Lock()
	s.filter.Reason = reason
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetAIFilter changes the client-side AI post-filter. The fetch still goes
// out with the unchanged (page,status,reason) triple; the new filter is
// applied over the page that comes back.
func (s *Store) SetAIFilter(ctx context.Context, filter AIFilter) error {
	s.mu.Lock()
	s.filter.AIProcessed = filter
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetPage changes the 1-based page and re-fetches.
func (s *Store) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.filter.Page = page
	s.mu.Unlock()
	return s.fetch(ctx)
}

// Refresh re-fetches the current page without changing the filter.
func (s *Store) Refresh(ctx context.Context) error {
	return s.fetch(ctx)
}

// fetch issues exactly one list call for the current filter. Overlapping
// fetches are allowed; only the most recently issued one may apply its
// result.
func (s *Store) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	mine := s.seq
	s.loading = true
	s.lastError = ""
	q := gateway.ReportListQuery{
		Page:   s.filter.Page,
		Limit:  PageSize,
		Status: s.filter.Status,
		Reason: s.filter.Reason,
	}
	aiFilter := s.filter.AIProcessed
	s.mu.Unlock()
	s.notify()

	page, err := s.api.ListReports(ctx, q)

	s.mu.Lock()
	if mine != s.seq {
		// A newer fetch was issued while this one was in flight. Its
		// resolution owns the state, including the loading flag.
		s.mu.Unlock()
		metrics.StaleFetchesDiscardedTotal.Inc()
		s.log.Debug().Uint64("seq", mine).Msg("discarding stale fetch result")
		return nil
	}

	s.loading = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.mu.Unlock()
		s.notify()
		s.forwardAuthError(err)
		return err
	}

	s.visible = applyAIFilter(page.Reports, aiFilter)
	s.totalCount = page.Pagination.Count
	// Page count comes from the unfiltered server total. It does not
	// shrink when the AI filter hides rows on this page.
	s.totalPages = pageCount(page.Pagination.Count)
	s.mu.Unlock()
	s.notify()
	return nil
}

// applyAIFilter is the client-side post-filter over AutoResolved.
func applyAIFilter(reports []models.Report, filter AIFilter) []models.Report {
	switch filter {
	case AIFilterResolved:
		out := make([]models.Report, 0, len(reports))
		for _, r := range reports {
			if r.AutoResolved {
				out = append(out, r)
			}
		}
		return out
	case AIFilterNotResolved:
		out := make([]models.Report, 0, len(reports))
		for _, r := range reports {
			if !r.AutoResolved {
				out = append(out, r)
			}
		}
		return out
	default:
		return reports
	}
}

func pageCount(total int) int {
	pages := (total + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// UpdateStatus moves a pending report into a terminal status and, on
// success, re-fetches the current page so the list always reflects server
// truth. There is no optimistic local patch.
func (s *Store) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus, comment string) error {
	if !status.Terminal() {
		verr := gateway.NewValidationError("report status must be resolved or rejected")
		s.setError(verr)
		return verr
	}

	s.setLoading(true)
	err := s.api.UpdateReportStatus(ctx, reportID, status, comment)
	s.setLoading(false)

	action := audit.ActionResolveReport
	if status == models.ReportStatusRejected {
		action = audit.ActionRejectReport
	}

	if err != nil {
		metrics.ReportActionsTotal.WithLabelValues(string(action), "failure").Inc()
		s.record(ctx, action, reportID, gateway.Message(err), audit.OutcomeError)
		s.setError(err)
		s.forwardAuthError(err)
		return err
	}

	metrics.ReportActionsTotal.WithLabelValues(string(action), "success").Inc()
	s.record(ctx, action, reportID, comment, audit.OutcomeOK)
	return s.fetch(ctx)
}

// DeletePost permanently removes a post and, server-side, everything that
// references it. An empty id fails fast with a validation error and never
// issues a request. The confirm callback must approve the action first.
func (s *Store) DeletePost(ctx context.Context, postID string) error {
	if strings.TrimSpace(postID) == "" {
		verr := gateway.NewValidationError("Post ID is missing or invalid")
		s.setError(verr)
		return verr
	}

	if s.confirm == nil || !s.confirm(postID) {
		return ErrDeleteAborted
	}

	s.setLoading(true)
	err := s.api.DeletePost(ctx, postID)
	s.setLoading(false)

	if err != nil {
		metrics.ReportActionsTotal.WithLabelValues(string(audit.ActionDeletePost), "failure").Inc()
		s.record(ctx, audit.ActionDeletePost, postID, gateway.Message(err), audit.OutcomeError)
		s.setError(err)
		s.forwardAuthError(err)
		return err
	}

	metrics.ReportActionsTotal.WithLabelValues(string(audit.ActionDeletePost), "success").Inc()
	s.record(ctx, audit.ActionDeletePost, postID, "", audit.OutcomeOK)
	return s.fetch(ctx)
}

// ClearError resets the last error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current state. The report slice is copied.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Filter:     s.filter,
		TotalPages: s.totalPages,
		TotalCount: s.totalCount,
		Loading:    s.loading,
		Err:        s.lastError,
	}
	state.Reports = make([]models.Report, len(s.visible))
	copy(state.Reports, s.visible)
	return state
}

// VisibleCount returns the post-filter row count for the current page.
func (s *Store) VisibleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visible)
}

// TotalPages returns the server-derived page count.
func (s *Store) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
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

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	if loading {
		s.lastError = ""
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.lastError = gateway.Message(err)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) forwardAuthError(err error) {
	if s.onAuth != nil && gateway.IsAuth(err) {
		s.onAuth(err)
	}
}

func (s *Store) record(ctx context.Context, action audit.Action, targetID, detail string, outcome audit.Outcome) {
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
		Action:   action,
		TargetID: targetID,
		Actor:    actor,
		Detail:   detail,
		Outcome:  outcome,
	}
	if err := s.trail.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", string(action)).Msg("failed to record audit entry")
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
