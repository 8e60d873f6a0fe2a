package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireReport_NormalizeFull(t *testing.T) {
	data := []byte(`{
		"reports": [{
			"id": "r1",
			"postId": {
				"id": "p1",
				"caption": "sunset over the river",
				"imageUrl": "https://cdn.lewlew.social/p1.jpg",
				"createdAt": "2026-02-10T08:30:00Z",
				"user": "author-1"
			},
			"reporterId": {
				"id": "u2",
				"fullName": "Jane Doe",
				"email": "jane@example.com",
				"avatar": "https://cdn.lewlew.social/u2.png"
			},
			"reason": "spam",
			"description": "obvious ad",
			"status": "pending",
			"aiConfidenceScore": 0.93,
			"aiPrediction": "spam",
			"autoResolved": true,
			"createdAt": "2026-02-11T09:00:00.123Z"
		}],
		"pagination": {"current": 1, "total": 3, "count": 27, "limit": 10}
	}`)

	page, err := DecodeReportsPage(data)
	require.NoError(t, err)
	require.Len(t, page.Reports, 1)

	r := page.Reports[0]
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "p1", r.Post.ID)
	assert.Equal(t, "sunset over the river", r.Post.Caption)
	assert.Equal(t, "author-1", r.Post.AuthorID)
	assert.Equal(t, "Jane Doe", r.Reporter.FullName)
	assert.Equal(t, ReportStatusPending, r.Status)
	assert.Equal(t, 0.93, r.AIConfidenceScore)
	assert.True(t, r.AutoResolved)
	assert.Equal(t, 2026, r.CreatedAt.Year())
	assert.Equal(t, 27, page.Pagination.Count)
}

func TestWireReport_NormalizeMissingOptionals(t *testing.T) {
	t.Run("null sub-objects", func(t *testing.T) {
		r := WireReport{ID: "r1", Reason: "spam", Status: "pending"}.Normalize()

		assert.Equal(t, FallbackReporterName, r.Reporter.FullName)
		assert.Equal(t, FallbackCaption, r.Post.Caption)
		assert.Empty(t, r.Post.ID)
		assert.Zero(t, r.AIConfidenceScore)
		assert.False(t, r.AutoResolved, "untouched by the classifier means not auto-resolved")
		assert.True(t, r.CreatedAt.IsZero())
	})

	t.Run("present sub-objects with empty fields", func(t *testing.T) {
		w := WireReport{ID: "r1"}
		w.PostID = &struct {
			ID        string `json:"id"`
			Caption   string `json:"caption"`
			ImageURL  string `json:"imageUrl"`
			CreatedAt string `json:"createdAt"`
			User      string `json:"user"`
		}{ID: "p1"}
		w.ReporterID = &struct {
			ID       string `json:"id"`
			FullName string `json:"fullName"`
			Email    string `json:"email"`
			Avatar   string `json:"avatar"`
		}{ID: "u1"}

		r := w.Normalize()
		assert.Equal(t, "p1", r.Post.ID)
		assert.Equal(t, FallbackCaption, r.Post.Caption)
		assert.Equal(t, "u1", r.Reporter.ID)
		assert.Equal(t, FallbackReporterName, r.Reporter.FullName)
	})

	t.Run("explicit false autoResolved", func(t *testing.T) {
		autoResolved := false
		score := 0.2
		r := WireReport{AutoResolved: &autoResolved, AIConfidenceScore: &score}.Normalize()
		assert.False(t, r.AutoResolved)
		assert.Equal(t, 0.2, r.AIConfidenceScore)
	})
}

func TestParseWireTime(t *testing.T) {
	cases := map[string]time.Time{
		"":                            {},
		"garbage":                     {},
		"2026-02-11T09:00:00Z":        time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC),
		"2026-02-11T09:00:00.123Z":    time.Date(2026, 2, 11, 9, 0, 0, 123000000, time.UTC),
		"2026-02-11":                  time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		assert.True(t, parseWireTime(input).Equal(want), "input %q", input)
	}
}

func TestReportStatus_Terminal(t *testing.T) {
	assert.False(t, ReportStatusPending.Terminal())
	assert.True(t, ReportStatusResolved.Terminal())
	assert.True(t, ReportStatusRejected.Terminal())
	assert.False(t, ReportStatus("bogus").Terminal())
}

func TestDecodeReportsPage_Malformed(t *testing.T) {
	_, err := DecodeReportsPage([]byte("{not json"))
	require.Error(t, err)
}
