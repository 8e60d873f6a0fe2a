package models

import (
	"encoding/json"
	"time"
)

// Fallbacks applied when the remote payload omits optional sub-objects or
// fields. Resolved here so rendering code never needs nil checks.
const (
	FallbackReporterName = "Unknown user"
	FallbackCaption      = "(no caption)"
)

// WireReport mirrors the JSON shape the API actually sends. Post and
// reporter references arrive as nested objects that may be null when the
// underlying record was deleted server-side.
type WireReport struct {
	ID     string `json:"id"`
	PostID *struct {
		ID        string `json:"id"`
		Caption   string `json:"caption"`
		ImageURL  string `json:"imageUrl"`
		CreatedAt string `json:"createdAt"`
		User      string `json:"user"`
	} `json:"postId"`
	ReporterID *struct {
		ID       string `json:"id"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	} `json:"reporterId"`
	Reason            string   `json:"reason"`
	Description       string   `json:"description"`
	Status            string   `json:"status"`
	AIConfidenceScore *float64 `json:"aiConfidenceScore"`
	AIPrediction      string   `json:"aiPrediction"`
	AutoResolved      *bool    `json:"autoResolved"`
	ReviewedBy        string   `json:"reviewedBy"`
	ReviewComment     string   `json:"reviewComment"`
	ReviewedAt        string   `json:"reviewedAt"`
	CreatedAt         string   `json:"createdAt"`
}

// WireReportsPage is the raw reports list envelope.
type WireReportsPage struct {
	Reports    []WireReport `json:"reports"`
	Pagination Pagination   `json:"pagination"`
}

// Normalize resolves the optional wire fields into a Report with defined
// fallbacks.
func (w WireReport) Normalize() Report {
	r := Report{
		ID:            w.ID,
		Reason:        w.Reason,
		Description:   w.Description,
		Status:        ReportStatus(w.Status),
		AIPrediction:  w.AIPrediction,
		ReviewedBy:    w.ReviewedBy,
		ReviewComment: w.ReviewComment,
		ReviewedAt:    parseWireTime(w.ReviewedAt),
		CreatedAt:     parseWireTime(w.CreatedAt),
	}

	if w.AIConfidenceScore != nil {
		r.AIConfidenceScore = *w.AIConfidenceScore
	}
	if w.AutoResolved != nil {
		r.AutoResolved = *w.AutoResolved
	}

	if w.PostID != nil {
		r.Post = PostRef{
			ID:        w.PostID.ID,
			Caption:   w.PostID.Caption,
			ImageURL:  w.PostID.ImageURL,
			AuthorID:  w.PostID.User,
			CreatedAt: parseWireTime(w.PostID.CreatedAt),
		}
	}
	if r.Post.Caption == "" {
		r.Post.Caption = FallbackCaption
	}

	if w.ReporterID != nil {
		r.Reporter = ReporterRef{
			ID:       w.ReporterID.ID,
			FullName: w.ReporterID.FullName,
			Email:    w.ReporterID.Email,
			Avatar:   w.ReporterID.Avatar,
		}
	}
	if r.Reporter.FullName == "" {
		r.Reporter.FullName = FallbackReporterName
	}

	return r
}

// Normalize converts a raw page into its domain form.
func (w WireReportsPage) Normalize() *ReportsPage {
	page := &ReportsPage{
		Reports:    make([]Report, 0, len(w.Reports)),
		Pagination: w.Pagination,
	}
	for _, wr := range w.Reports {
		page.Reports = append(page.Reports, wr.Normalize())
	}
	return page
}

// parseWireTime accepts the timestamp formats the API emits. A missing or
// malformed value normalizes to the zero time rather than an error; the
// console renders those as "never".
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DecodeReportsPage decodes and normalizes a raw reports list body.
func DecodeReportsPage(data []byte) (*ReportsPage, error) {
	var wire WireReportsPage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return wire.Normalize(), nil
}
