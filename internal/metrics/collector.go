package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource provides functions to read current store state for gauge
// metrics. Nil fields are skipped.
type StatsSource struct {
	Authenticated  func() bool
	VisibleReports func() int
	TotalPages     func() int
}

// StartCollector launches a goroutine that periodically updates gauge metrics.
// It runs every interval until the context is cancelled.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	// Do an initial collection immediately
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
}

func collect(src StatsSource) {
	if src.Authenticated != nil {
		if src.Authenticated() {
			SessionAuthenticated.Set(1)
		} else {
			SessionAuthenticated.Set(0)
		}
	}
	if src.VisibleReports != nil {
		ReportsVisible.Set(float64(src.VisibleReports()))
	}
	if src.TotalPages != nil {
		ReportsTotalPages.Set(float64(src.TotalPages()))
	}
}
