package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"top_rank_ledger/internal/app"
	"top_rank_ledger/internal/notifications"
	"top_rank_ledger/internal/processing"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

// run does one pass over the ledger. It returns the exit code so deferred
// cleanup (browser, workbook) runs before the process exits.
func run() int {
	app.SetupEnvironment()
	log.Debug().Msg("Starting application")

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := app.InitializeNotificationClient(cfg.Notifications)

	book, err := app.OpenLedger(ctx, cfg.Ledger)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open ledger")
		notifier.NotifyRunSummary(context.Background(), notifications.RunReport{Err: err})
		return 1
	}
	defer func() {
		if err := book.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close ledger")
		}
	}()

	site, err := app.OpenSite(ctx, cfg.Site)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start browser")
		notifier.NotifyRunSummary(context.Background(), notifications.RunReport{Err: err})
		return 1
	}
	defer site.Close()

	log.Info().
		Str("user", cfg.Site.UserID).
		Str("search_by", string(cfg.SearchBy)).
		Msg("Starting rank ledger update")

	summary, err := processing.Run(ctx, book, site, cfg.RunOptions(time.Now()))

	// The run context may already be cancelled; the summary still goes out.
	notifier.NotifyRunSummary(context.Background(), notifications.RunReport{
		Targets:      summary.Targets,
		Units:        summary.Units,
		Observations: summary.Observations,
		Written:      summary.Written,
		Failed:       summary.Failed,
		Unmatched:    summary.Unmatched,
		Saved:        summary.Saved,
		Err:          err,
	})

	if err != nil {
		log.Error().Err(err).Msg("Run failed")
		return 1
	}
	return 0
}
