package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"

	"tangled.org/lewlew.social/lewctl/internal/models"
)

// ReportListQuery is the server-side slice of the report filter. The
// AI-processed dimension never appears here; the API does not know about
// it and it is applied client-side over the fetched page.
type ReportListQuery struct {
	Page   int    `url:"page"`
	Limit  int    `url:"limit"`
	Status string `url:"status,omitempty"`
	Reason string `url:"reason,omitempty"`
}

// Values encodes the query, omitting empty status/reason.
func (q ReportListQuery) Values() url.Values {
	v, err := query.Values(q)
	if err != nil {
		return url.Values{}
	}
	return v
}

// ListReports fetches one page of reports matching the query.
func (c *Client) ListReports(ctx context.Context, q ReportListQuery) (*models.ReportsPage, error) {
	var wire models.WireReportsPage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/reports",
		query:    q.Values(),
		authed:   true,
		endpoint: "reports.list",
		fallback: "Failed to fetch reports",
	}, &wire)
	if err != nil {
		return nil, err
	}
	return wire.Normalize(), nil
}

type updateStatusRequest struct {
	Status        string `json:"status"`
	ReviewComment string `json:"reviewComment"`
}

// UpdateReportStatus moves a report into a terminal status with an
// optional review comment.
func (c *Client) UpdateReportStatus(ctx context.Context, reportID string, status models.ReportStatus, comment string) error {
	return c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/reports/" + url.PathEscape(reportID) + "/status",
		body:     updateStatusRequest{Status: string(status), ReviewComment: comment},
		authed:   true,
		endpoint: "reports.update_status",
		fallback: "Failed to update report status",
	}, nil)
}
