// Command lewctl is the LewLew admin console: a terminal client for
// authentication, report moderation, dashboard statistics and geographic
// analytics against the remote LewLew API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tangled.org/lewlew.social/lewctl/internal/audit"
	"tangled.org/lewlew.social/lewctl/internal/config"
	"tangled.org/lewlew.social/lewctl/internal/dashboard"
	"tangled.org/lewlew.social/lewctl/internal/database/boltstore"
	"tangled.org/lewlew.social/lewctl/internal/gateway"
	"tangled.org/lewlew.social/lewctl/internal/locations"
	"tangled.org/lewlew.social/lewctl/internal/reports"
	"tangled.org/lewlew.social/lewctl/internal/session"
	"tangled.org/lewlew.social/lewctl/internal/tracing"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.Init(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.close()

	if err := a.run(ctx, command, args); err != nil {
		if gateway.IsValidation(err) || err == reports.ErrDeleteAborted {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

// configureLogging applies the loaded config to zerolog: level from
// LOG_LEVEL (default info), pretty console output unless LOG_FORMAT=json.
func configureLogging(cfg *config.Config) {
	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `lewctl - LewLew admin console

Usage: lewctl <command> [flags]

Commands:
  login         -user <login> -password <password>
  logout
  whoami
  stats
  recent-users  -limit <n>
  pending
  system-check
  reports       -status <s> -reason <r> -ai <f> -page <n>
  resolve       <report-id> -comment <text>
  reject        <report-id> -comment <text>
  delete-post   <post-id> [-yes]
  locations     [-top <n>] [-period 7d|30d|90d]
  audit         -limit <n>
  watch         [-interval <duration>]

Environment:
  LEWLEW_API_URL, LEWLEW_DB_PATH, LEWLEW_AUDIT_DB_PATH, METRICS_ADDR,
  LOG_LEVEL, LOG_FORMAT, TRACING_ENABLED, LOGOUT_ON_401, DROP_EXPIRED_SESSION
`)
}

// app wires the stores together. Stores are explicit values owned here and
// injected into each other; nothing is a package-level singleton.
type app struct {
	cfg   *config.Config
	store *boltstore.Store
	trail *audit.SQLiteLog

	api       *gateway.Client
	session   *session.Store
	reports   *reports.Store
	dashboard *dashboard.Store
	locations *locations.Store
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := boltstore.Open(boltstore.Options{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	log.Debug().Str("path", cfg.DBPath).Msg("Database opened")

	var trail *audit.SQLiteLog
	if cfg.AuditDBPath != "" {
		trail, err = audit.OpenSQLite(cfg.AuditDBPath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("open audit database %s: %w", cfg.AuditDBPath, err)
		}
	}

	creds := store.CredentialStore()
	api := gateway.New(cfg.APIBaseURL, creds)

	sess := session.New(api, creds, store.SessionStore(), session.Options{
		LogoutOn401:          cfg.LogoutOn401,
		DropExpiredOnRestore: cfg.DropExpiredSession,
	})

	actor := func() string {
		if state := sess.Snapshot(); state.User != nil {
			return state.User.Email
		}
		return ""
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		trail:   trail,
		api:     api,
		session: sess,
	}

	var trailRecorder audit.Recorder
	if trail != nil {
		trailRecorder = trail
	}

	a.reports = reports.New(api, a.confirmDelete,
		reports.WithAuditTrail(trailRecorder),
		reports.WithActor(actor),
		reports.WithAuthErrorHook(sess.HandleAuthError),
	)
	a.dashboard = dashboard.New(api,
		dashboard.WithAuditTrail(trailRecorder),
		dashboard.WithActor(actor),
		dashboard.WithAuthErrorHook(sess.HandleAuthError),
	)
	a.locations = locations.New(api,
		locations.WithAuthErrorHook(sess.HandleAuthError),
	)

	return a, nil
}

func (a *app) close() {
	if a.trail != nil {
		a.trail.Close()
	}
	a.store.Close()
}

// confirmDelete is the interactive guard before a cascading post delete.
// The -yes flag swaps it out for the non-interactive path.
func (a *app) confirmDelete(postID string) bool {
	fmt.Printf("Permanently delete post %s?\n", postID)
	fmt.Println("This removes the post, its comments, its reports and its uploads. It cannot be undone.")
	fmt.Print("Type 'yes' to proceed: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return line == "yes\n"
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout()
	case "whoami":
		return a.cmdWhoami()
	case "stats":
		return a.cmdStats(ctx)
	case "recent-users":
		return a.cmdRecentUsers(ctx, args)
	case "pending":
		return a.cmdPending(ctx)
	case "system-check":
		return a.cmdSystemCheck(ctx)
	case "reports":
		return a.cmdReports(ctx, args)
	case "resolve":
		return a.cmdReview(ctx, args, true)
	case "reject":
		return a.cmdReview(ctx, args, false)
	case "delete-post":
		return a.cmdDeletePost(ctx, args)
	case "locations":
		return a.cmdLocations(ctx, args)
	case "audit":
		return a.cmdAudit(ctx, args)
	case "watch":
		return a.cmdWatch(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// serveMetrics exposes Prometheus metrics during watch mode. The server
// is shut down when ctx is cancelled.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	log.Info().Str("address", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
