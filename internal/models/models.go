// Package models defines the domain types exchanged with the LewLew admin
// API, along with the normalization applied to raw wire payloads at the
// ingestion boundary. Optional remote fields are resolved to defined
// fallbacks exactly once, here, so downstream code never deals with
// missing sub-objects.
package models

import "time"

// Role is an admin console role.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// AdminUser is the authenticated admin identity as reported by the API.
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// SessionProjection is the non-secret slice of a session that is persisted
// across restarts. The raw token is deliberately excluded; it lives under a
// separate credential key.
type SessionProjection struct {
	Authenticated bool      `json:"authenticated"`
	User          AdminUser `json:"user"`
}

// ReportStatus is the moderation state of a report. Pending is the only
// non-terminal state.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusRejected ReportStatus = "rejected"
)

// Terminal returns true for states a pending report can transition into.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusResolved || s == ReportStatusRejected
}

// PostRef identifies the post a report is about.
type PostRef struct {
	ID        string
	Caption   string
	ImageURL  string
	AuthorID  string
	CreatedAt time.Time
}

// ReporterRef identifies the user who filed a report.
type ReporterRef struct {
	ID       string
	FullName string
	Email    string
	Avatar   string
}

// Report is a single moderation unit, normalized from the wire form.
type Report struct {
	ID          string
	Post        PostRef
	Reporter    ReporterRef
	Reason      string
	Description string
	Status      ReportStatus

	// AI triage fields. AutoResolved is false when the report was never
	// touched by the classifier.
	AIConfidenceScore float64
	AIPrediction      string
	AutoResolved      bool

	ReviewedBy    string
	ReviewComment string
	ReviewedAt    time.Time
	CreatedAt     time.Time
}

// Pagination is the server's description of a report page. Count is the
// unfiltered total across all pages.
type Pagination struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Count   int `json:"count"`
	Limit   int `json:"limit"`
}

// ReportsPage is one fetched page of reports plus its pagination envelope.
type ReportsPage struct {
	Reports    []Report
	Pagination Pagination
}

// DashboardStats is the aggregate snapshot behind the dashboard view.
// It is refreshed wholesale on every fetch; there is no client-side
// mutation of individual fields.
type DashboardStats struct {
	Users struct {
		Total        int `json:"total"`
		NewToday     int `json:"newToday"`
		NewThisWeek  int `json:"newThisWeek"`
		NewThisMonth int `json:"newThisMonth"`
		ActiveUsers  int `json:"activeUsers"`
	} `json:"users"`
	Posts struct {
		Total        int `json:"total"`
		NewToday     int `json:"newToday"`
		NewThisWeek  int `json:"newThisWeek"`
		NewThisMonth int `json:"newThisMonth"`
		ActivePosts  int `json:"activePosts"`
		ExpiredPosts int `json:"expiredPosts"`
		DeletedPosts int `json:"deletedPosts"`
	} `json:"posts"`
	Reports struct {
		TotalReports        int    `json:"totalReports"`
		PendingReports      int    `json:"pendingReports"`
		ResolvedReports     int    `json:"resolvedReports"`
		RejectedReports     int    `json:"rejectedReports"`
		AutoResolvedReports int    `json:"autoResolvedReports"`
		RecentReports       int    `json:"recentReports"`
		AutoResolutionRate  string `json:"autoResolutionRate"`
	} `json:"reports"`
	Engagement struct {
		TotalLikes         int     `json:"totalLikes"`
		TotalComments      int     `json:"totalComments"`
		LikesToday         int     `json:"likesToday"`
		CommentsToday      int     `json:"commentsToday"`
		AvgLikesPerPost    float64 `json:"avgLikesPerPost"`
		AvgCommentsPerPost float64 `json:"avgCommentsPerPost"`
	} `json:"engagement"`
	SystemHealth struct {
		Uptime       string `json:"uptime"`
		ResponseTime string `json:"responseTime"`
		ErrorRate    string `json:"errorRate"`
		LastUpdated  string `json:"lastUpdated"`
	} `json:"systemHealth"`
}

// LocationStats describes activity at a single location.
type LocationStats struct {
	LocationName    string     `json:"locationName"`
	Coordinates     [2]float64 `json:"coordinates"`
	PostCount       int        `json:"postCount"`
	UserCount       int        `json:"userCount"`
	EngagementRate  float64    `json:"engagementRate"`
	AverageLikes    float64    `json:"averageLikes"`
	AverageComments float64    `json:"averageComments"`
	LastActivity    string     `json:"lastActivity"`
}

// GrowthPoint is one time bucket of the location growth series.
type GrowthPoint struct {
	Date         string `json:"date"`
	NewLocations int    `json:"newLocations"`
	TotalPosts   int    `json:"totalPosts"`
}

// RegionShare is one slice of the geographic distribution.
type RegionShare struct {
	Region      string      `json:"region"`
	Count       int         `json:"count"`
	Percentage  float64     `json:"percentage"`
	Coordinates *[2]float64 `json:"coordinates,omitempty"`
}

// LocationAnalytics is the headline location facet.
type LocationAnalytics struct {
	TotalLocations         int           `json:"totalLocations"`
	MostActiveLocation     LocationStats `json:"mostActiveLocation"`
	TopLocations           []LocationStats `json:"topLocations"`
	LocationGrowth         []GrowthPoint `json:"locationGrowth"`
	GeographicDistribution []RegionShare `json:"geographicDistribution"`
}
