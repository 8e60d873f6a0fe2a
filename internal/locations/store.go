// Package locations caches the four geographic analytics facets. Each
// facet fetches independently so partial data can render while the rest
// is still in flight.
package locations

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/models"
)

// DefaultTopLimit is the top-locations facet size used by RefreshAll.
const DefaultTopLimit = 10

// API is the slice of the gateway the locations store depends on.
type API interface {
	LocationAnalytics(ctx context.Context) (*models.LocationAnalytics, error)
	TopLocations(ctx context.Context, limit int) ([]models.LocationStats, error)
	LocationGrowth(ctx context.Context, period gateway.GrowthPeriod) ([]models.GrowthPoint, error)
	GeographicDistribution(ctx context.Context) ([]models.RegionShare, error)
}

// State is an immutable snapshot handed to subscribers and views.
type State struct {
	Analytics    *models.LocationAnalytics
	TopLocations []models.LocationStats
	Growth       []models.GrowthPoint
	Distribution []models.RegionShare

	// One loading flag per facet so partial data can render while the
	// rest is in flight. LoadingCharts covers the growth series.
	Loading             bool // headline analytics
	LoadingTop          bool
	LoadingCharts       bool
	LoadingDistribution bool

	Err string
}

// Store holds the location analytics facets.
type Store struct {
	api    API
	onAuth func(error)
	log    zerolog.Logger

	mu                  sync.Mutex
	analytics           *models.LocationAnalytics
	topLocations        []models.LocationStats
	growth              []models.GrowthPoint
	distribution        []models.RegionShare
	loading             bool
	loadingTop          bool
	loadingCharts       bool
	loadingDistribution bool
	lastError           string

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithAuthErrorHook forwards authentication failures to the session layer.
func WithAuthErrorHook(hook func(error)) Option {
	return func(s *Store) { s.onAuth = hook }
}

// New creates the store.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:  api,
		log:  log.With().Str("store", "locations").Logger(),
		subs: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAnalytics refreshes the headline facet.
//
// Facet fetches only ever set the shared error field, never clear it:
// under RefreshAll they run concurrently, and a clear inside one facet
// could wipe a failure a sibling already recorded. Clearing happens in
// RefreshAll (once, before launching) and in ClearError.
func (s *Store) FetchAnalytics(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()

	analytics, err := s.api.LocationAnalytics(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.mu.Unlock()
		s.notify()
		s.forwardAuthError(err)
		return err
	}
	s.analytics = analytics
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchTopLocations refreshes the top-locations facet.
func (s *Store) FetchTopLocations(ctx context.Context, limit int) error {
	s.mu.Lock()
	s.loadingTop = true
	s.mu.Unlock()
	s.notify()

	top, err := s.api.TopLocations(ctx, limit)

	s.mu.Lock()
	s.loadingTop = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.mu.Unlock()
		s.notify()
		s.forwardAuthError(err)
		return err
	}
	s.topLocations = top
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchGrowth refreshes the growth series for the period.
func (s *Store) FetchGrowth(ctx context.Context, period gateway.GrowthPeriod) error {
	s.mu.Lock()
	s.loadingCharts = true
	s.mu.Unlock()
	s.notify()

	points, err := s.api.LocationGrowth(ctx, period)

	s.mu.Lock()
	s.loadingCharts = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.mu.Unlock()
		s.notify()
		s.forwardAuthError(err)
		return err
	}
	s.growth = points
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchDistribution refreshes the geographic distribution facet.
func (s *Store) FetchDistribution(ctx context.Context) error {
	s.mu.Lock()
	s.loadingDistribution = true
	s.mu.Unlock()
	s.notify()

	shares, err := s.api.GeographicDistribution(ctx)

	s.mu.Lock()
	s.loadingDistribution = false
	if err != nil {
		s.lastError = gateway.Message(err)
		s.mu.Unlock()
		s.notify()
		s.forwardAuthError(err)
		return err
	}
	s.distribution = shares
	s.mu.Unlock()
	s.notify()
	return nil
}

// RefreshAll fetches all four facets concurrently and waits for every one
// to settle. A failing facet records its message in the shared error field
// but does not cancel its siblings; whatever succeeded stays populated.
// The returned error is the first facet failure, if any.
func (s *Store) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()

	var g errgroup.Group

	g.Go(func() error { return s.FetchAnalytics(ctx) })
	g.Go(func() error { return s.FetchTopLocations(ctx, DefaultTopLimit) })
	g.Go(func() error { return s.FetchGrowth(ctx, gateway.GrowthPeriod30d) })
	g.Go(func() error { return s.FetchDistribution(ctx) })

	return g.Wait()
}

// ClearError resets the last error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current state. Facet slices are copied.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Analytics:           s.analytics,
		Loading:             s.loading,
		LoadingTop:          s.loadingTop,
		LoadingCharts:       s.loadingCharts,
		LoadingDistribution: s.loadingDistribution,
		Err:                 s.lastError,
	}
	state.TopLocations = append([]models.LocationStats(nil), s.topLocations...)
	state.Growth = append([]models.GrowthPoint(nil), s.growth...)
	state.Distribution = append([]models.RegionShare(nil), s.distribution...)
	return state
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
