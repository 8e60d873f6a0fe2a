package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"tangled.org/lewlew.social/lewctl/internal/models"
)

// DashboardStats fetches the aggregate dashboard snapshot.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/stats",
		authed:   true,
		endpoint: "admin.stats",
		fallback: "Failed to fetch dashboard stats",
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentUsers fetches the N most recently registered users. The payload is
// treated as opaque; the console prints it as-is.
func (c *Client) RecentUsers(ctx context.Context, limit int) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/users/recent",
		query:    url.Values{"limit": []string{strconv.Itoa(limit)}},
		authed:   true,
		endpoint: "admin.recent_users",
		fallback: "Failed to fetch recent users",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// PendingReportsSummary fetches the pending-report overview used by the
// dashboard quick actions.
func (c *Client) PendingReportsSummary(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/reports/pending",
		authed:   true,
		endpoint: "admin.pending_reports",
		fallback: "Failed to fetch pending reports",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// SystemCheck triggers a server-side health sweep and returns its result.
func (c *Client) SystemCheck(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/actions/system-check",
		authed:   true,
		endpoint: "admin.system_check",
		fallback: "Failed to perform system check",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// DeletePost permanently removes a post. The server cascades the delete to
// the post's comments, reports and upload records.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/admin/posts/" + url.PathEscape(postID),
		authed:   true,
		endpoint: "admin.delete_post",
		fallback: "Failed to delete post",
	}, nil)
}
