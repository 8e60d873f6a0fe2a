package dashboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangled.org/lewlew.social/lewctl/internal/audit"
	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/models"
)

type fakeAPI struct {
	stats    *models.DashboardStats
	statsErr error

	recent    json.RawMessage
	recentErr error
	lastLimit int

	pending    json.RawMessage
	pendingErr error

	check      json.RawMessage
	checkErr   error
	checkCalls int
}

func (f *fakeAPI) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeAPI) RecentUsers(ctx context.Context, limit int) (json.RawMessage, error) {
	f.lastLimit = limit
	return f.recent, f.recentErr
}

func (f *fakeAPI) PendingReportsSummary(ctx context.Context) (json.RawMessage, error) {
	return f.pending, f.pendingErr
}

func (f *fakeAPI) SystemCheck(ctx context.Context) (json.RawMessage, error) {
	f.checkCalls++
	return f.check, f.checkErr
}

type memTrail struct {
	entries []audit.Entry
}

func (m *memTrail) Append(ctx context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestFetchStats(t *testing.T) {
	stats := &models.DashboardStats{}
	stats.Users.Total = 120
	stats.Reports.PendingReports = 4

	store := New(&fakeAPI{stats: stats})
	require.NoError(t, store.FetchStats(context.Background()))

	state := store.Snapshot()
	require.NotNil(t, state.Stats)
	assert.Equal(t, 120, state.Stats.Users.Total)
	assert.Equal(t, 4, state.Stats.Reports.PendingReports)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Err)
}

func TestFetchStats_ErrorReplacesNothing(t *testing.T) {
	stats := &models.DashboardStats{}
	stats.Users.Total = 120
	api := &fakeAPI{stats: stats}
	store := New(api)

	require.NoError(t, store.FetchStats(context.Background()))

	api.statsErr = &gateway.Error{Kind: gateway.KindServer, Message: "Failed to fetch dashboard stats"}
	require.Error(t, store.FetchStats(context.Background()))

	state := store.Snapshot()
	assert.Equal(t, "Failed to fetch dashboard stats", state.Err)
	// The previous snapshot stays; a failed refresh does not blank it.
	require.NotNil(t, state.Stats)
	assert.Equal(t, 120, state.Stats.Users.Total)
}

func TestQuickActions_PassThrough(t *testing.T) {
	api := &fakeAPI{
		recent:  json.RawMessage(`[{"id":"u1"}]`),
		pending: json.RawMessage(`{"count":3}`),
	}
	store := New(api)
	ctx := context.Background()

	raw, err := store.RecentUsers(ctx, 5)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"u1"}]`, string(raw))
	assert.Equal(t, 5, api.lastLimit)

	raw, err = store.PendingSummary(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, string(raw))
}

func TestQuickActions_ErrorsStayOffTheStore(t *testing.T) {
	api := &fakeAPI{recentErr: &gateway.Error{Kind: gateway.KindServer, Message: "Failed to fetch recent users"}}
	store := New(api)

	_, err := store.RecentUsers(context.Background(), 5)
	require.Error(t, err)
	assert.Empty(t, store.Snapshot().Err, "quick action errors surface to the caller only")
}

func TestSystemCheck_Audited(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		trail := &memTrail{}
		api := &fakeAPI{check: json.RawMessage(`{"ok":true}`)}
		store := New(api, WithAuditTrail(trail), WithActor(func() string { return "admin@lewlew.social" }))

		raw, err := store.SystemCheck(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(raw))

		require.Len(t, trail.entries, 1)
		entry := trail.entries[0]
		assert.Equal(t, audit.ActionSystemCheck, entry.Action)
		assert.Equal(t, "admin@lewlew.social", entry.Actor)
		assert.Equal(t, audit.OutcomeOK, entry.Outcome)
	})

	t.Run("failure", func(t *testing.T) {
		trail := &memTrail{}
		api := &fakeAPI{checkErr: &gateway.Error{Kind: gateway.KindServer, Message: "Failed to perform system check"}}
		store := New(api, WithAuditTrail(trail))

		_, err := store.SystemCheck(context.Background())
		require.Error(t, err)

		require.Len(t, trail.entries, 1)
		assert.Equal(t, audit.OutcomeError, trail.entries[0].Outcome)
		assert.Equal(t, "Failed to perform system check", trail.entries[0].Detail)
	})
}

func TestAuthErrorForwarded(t *testing.T) {
	var forwarded []error
	api := &fakeAPI{statsErr: &gateway.Error{Kind: gateway.KindAuth, Message: "expired", StatusCode: 401}}
	store := New(api, WithAuthErrorHook(func(err error) { forwarded = append(forwarded, err) }))

	require.Error(t, store.FetchStats(context.Background()))
	require.Len(t, forwarded, 1)
	assert.True(t, gateway.IsAuth(forwarded[0]))
}
