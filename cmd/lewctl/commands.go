package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"

	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/metrics"
	"tangled.org/lewlew.social/lewctl/internal/models"
	"tangled.org/lewlew.social/lewctl/internal/reports"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "admin login (username or phone number)")
	password := fs.String("password", "", "admin password")
	fs.Parse(args)

	if *user == "" || *password == "" {
		return gateway.NewValidationError("both -user and -password are required")
	}

	if a.session.Login(ctx, *user, *password) {
		state := a.session.Snapshot()
		fmt.Printf("Logged in as %s (%s)\n", state.User.Email, state.User.Role)
		return nil
	}

	return fmt.Errorf("login failed: %s", a.session.Snapshot().Err)
}

func (a *app) cmdLogout() error {
	a.session.Logout()
	fmt.Println("Logged out.")
	return nil
}

func (a *app) cmdWhoami() error {
	state := a.session.Snapshot()
	if !state.Authenticated || state.User == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s (%s), id %s\n", state.User.Email, state.User.Role, state.User.ID)
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	if err := a.dashboard.FetchStats(ctx); err != nil {
		return err
	}

	stats := a.dashboard.Snapshot().Stats
	fmt.Printf("Users:    %d total, %d new today, %d active\n",
		stats.Users.Total, stats.Users.NewToday, stats.Users.ActiveUsers)
	fmt.Printf("Posts:    %d total, %d new today, %d active\n",
		stats.Posts.Total, stats.Posts.NewToday, stats.Posts.ActivePosts)
	fmt.Printf("Reports:  %d total, %d pending, %d resolved, %d rejected, %d auto-resolved (%s)\n",
		stats.Reports.TotalReports, stats.Reports.PendingReports, stats.Reports.ResolvedReports,
		stats.Reports.RejectedReports, stats.Reports.AutoResolvedReports, stats.Reports.AutoResolutionRate)
	fmt.Printf("Activity: %d likes, %d comments today\n",
		stats.Engagement.LikesToday, stats.Engagement.CommentsToday)
	fmt.Printf("Health:   uptime %s, response %s, errors %s\n",
		stats.SystemHealth.Uptime, stats.SystemHealth.ResponseTime, stats.SystemHealth.ErrorRate)
	return nil
}

func (a *app) cmdRecentUsers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recent-users", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of users to fetch")
	fs.Parse(args)

	raw, err := a.dashboard.RecentUsers(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(raw)
}

func (a *app) cmdPending(ctx context.Context) error {
	raw, err := a.dashboard.PendingSummary(ctx)
	if err != nil {
		return err
	}
	return printJSON(raw)
}

func (a *app) cmdSystemCheck(ctx context.Context) error {
	raw, err := a.dashboard.SystemCheck(ctx)
	if err != nil {
		return err
	}
	return printJSON(raw)
}

func (a *app) cmdReports(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	status := fs.String("status", "", "status filter: pending, resolved or rejected")
	reason := fs.String("reason", "", "reason filter")
	ai := fs.String("ai", "", "AI filter: ai_resolved or not_ai_resolved")
	page := fs.Int("page", 1, "1-based page number")
	fs.Parse(args)

	err := a.reports.SetFilter(ctx, reports.Filter{
		Status:      *status,
		Reason:      *reason,
		AIProcessed: reports.AIFilter(*ai),
		Page:        *page,
	})
	if err != nil {
		return err
	}

	state := a.reports.Snapshot()
	if len(state.Reports) == 0 {
		fmt.Printf("No reports on page %d/%d.\n", state.Filter.Page, state.TotalPages)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tREASON\tREPORTER\tPOST\tAI\tCREATED")
	for _, r := range state.Reports {
		triage := "-"
		if r.AutoResolved {
			triage = fmt.Sprintf("%s (%.2f)", r.AIPrediction, r.AIConfidenceScore)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.Reason, r.Reporter.FullName,
			truncate(r.Post.Caption, 30), triage, formatTime(r.CreatedAt))
	}
	w.Flush()

	fmt.Printf("Page %d/%d, %d reports total (%d visible after AI filter)\n",
		state.Filter.Page, state.TotalPages, state.TotalCount, len(state.Reports))
	return nil
}

func (a *app) cmdReview(ctx context.Context, args []string, resolve bool) error {
	if len(args) == 0 {
		return gateway.NewValidationError("report id is required")
	}
	reportID := args[0]

	fs := flag.NewFlagSet("review", flag.ExitOnError)
	comment := fs.String("comment", "", "review comment")
	fs.Parse(args[1:])

	status := models.ReportStatusResolved
	if !resolve {
		status = models.ReportStatusRejected
	}

	if err := a.reports.UpdateStatus(ctx, reportID, status, *comment); err != nil {
		return err
	}

	fmt.Printf("Report %s marked %s.\n", reportID, status)
	return nil
}

func (a *app) cmdDeletePost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-post", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the interactive confirmation")

	var postID string
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		postID = args[0]
		args = args[1:]
	}
	fs.Parse(args)

	if *yes {
		a.reports = a.withAutoConfirm()
	}

	if err := a.reports.DeletePost(ctx, postID); err != nil {
		return err
	}

	fmt.Printf("Post %s and all related data deleted.\n", postID)
	return nil
}

// withAutoConfirm rebuilds the reports store with a confirmation guard
// that always approves, for the -yes path.
func (a *app) withAutoConfirm() *reports.Store {
	actor := func() string {
		if state := a.session.Snapshot(); state.User != nil {
			return state.User.Email
		}
		return ""
	}

	opts := []reports.Option{
		reports.WithActor(actor),
		reports.WithAuthErrorHook(a.session.HandleAuthError),
	}
	if a.trail != nil {
		opts = append(opts, reports.WithAuditTrail(a.trail))
	}
	return reports.New(a.api, func(string) bool { return true }, opts...)
}

func (a *app) cmdLocations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("locations", flag.ExitOnError)
	top := fs.Int("top", 10, "number of top locations")
	period := fs.String("period", "30d", "growth period: 7d, 30d or 90d")
	fs.Parse(args)

	if err := a.locations.FetchAnalytics(ctx); err != nil {
		return err
	}
	if err := a.locations.FetchTopLocations(ctx, *top); err != nil {
		return err
	}
	if err := a.locations.FetchGrowth(ctx, gateway.GrowthPeriod(*period)); err != nil {
		return err
	}
	if err := a.locations.FetchDistribution(ctx); err != nil {
		return err
	}

	state := a.locations.Snapshot()
	fmt.Printf("Locations: %d total, most active: %s\n",
		state.Analytics.TotalLocations, state.Analytics.MostActiveLocation.LocationName)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tPOSTS\tUSERS\tENGAGEMENT")
	for _, loc := range state.TopLocations {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n",
			loc.LocationName, loc.PostCount, loc.UserCount, loc.EngagementRate)
	}
	w.Flush()

	fmt.Printf("\nGrowth (%s):\n", *period)
	for _, p := range state.Growth {
		fmt.Printf("  %s  +%d locations, %d posts\n", p.Date, p.NewLocations, p.TotalPosts)
	}

	fmt.Println("\nDistribution:")
	for _, r := range state.Distribution {
		fmt.Printf("  %-20s %5d (%.1f%%)\n", r.Region, r.Count, r.Percentage)
	}
	return nil
}

func (a *app) cmdAudit(ctx context.Context, args []string) error {
	if a.trail == nil {
		fmt.Println("Audit trail disabled (LEWLEW_AUDIT_DB_PATH is empty).")
		return nil
	}

	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	limit := fs.Int("limit", 50, "number of entries to show")
	fs.Parse(args)

	entries, err := a.trail.List(ctx, *limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tTARGET\tACTOR\tOUTCOME\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			formatTime(e.CreatedAt), e.Action, e.TargetID, e.Actor, e.Outcome, truncate(e.Detail, 40))
	}
	return w.Flush()
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", 30*time.Second, "refresh interval")
	fs.Parse(args)

	if a.cfg.MetricsAddr != "" {
		go serveMetrics(ctx, a.cfg.MetricsAddr)
	}

	metrics.StartCollector(ctx, metrics.StatsSource{
		Authenticated:  a.session.Authenticated,
		VisibleReports: a.reports.VisibleCount,
		TotalPages:     a.reports.TotalPages,
	}, *interval)

	refresh := func() {
		if err := a.dashboard.FetchStats(ctx); err != nil {
			log.Warn().Err(err).Msg("Dashboard refresh failed")
			return
		}
		stats := a.dashboard.Snapshot().Stats
		log.Info().
			Int("pending_reports", stats.Reports.PendingReports).
			Int("users", stats.Users.Total).
			Int("posts", stats.Posts.Total).
			Msg("Dashboard refreshed")
	}

	refresh()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Watch stopped")
			return nil
		case <-ticker.C:
			refresh()
		}
	}
}

func printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not an object or array; print verbatim.
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}

// truncate shortens s to at most n display runes. Captions can carry
// multibyte text, so slicing happens on runes, never bytes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
