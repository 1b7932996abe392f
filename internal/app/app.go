// Package app wires the configured extraction services into the snapshot
// pipeline and owns run-once and scheduled execution.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketsnap/internal/common"
	"github.com/ternarybob/marketsnap/internal/httpclient"
	"github.com/ternarybob/marketsnap/internal/moneydj"
	"github.com/ternarybob/marketsnap/internal/snapshot"
	"github.com/ternarybob/marketsnap/internal/taifex"
	"github.com/ternarybob/marketsnap/internal/twse"
)

// App holds the wired pipeline.
type App struct {
	config    *common.Config
	logger    arbor.ILogger
	assembler *snapshot.Assembler
	cron      *cron.Cron
}

// New builds the pipeline from configuration: shared HTTP fetcher (with
// the rendered-fetch fallback when enabled), the three extraction
// services, and the assembler.
func New(config *common.Config, logger arbor.ILogger) *App {
	clientOpts := []httpclient.Option{httpclient.WithLogger(logger)}
	if config.Client.ChromeFallback {
		clientOpts = append(clientOpts, httpclient.WithRenderer(
			httpclient.NewChromeRenderer(config.Client.UserAgent, config.Client.Timeout, logger)))
	}
	fetcher := httpclient.New(config.Client.UserAgent, config.Client.Timeout, clientOpts...)

	market := twse.NewClient(fetcher,
		twse.WithBaseURL(config.TWSE.BaseURL),
		twse.WithRateLimit(config.TWSE.RateLimit),
		twse.WithLogger(logger))
	rankings := moneydj.NewService(fetcher, config.MoneyDJ, logger)
	positions := taifex.NewService(fetcher, config.Taifex, logger)

	return &App{
		config:    config,
		logger:    logger,
		assembler: snapshot.NewAssembler(market, rankings, positions, config, logger),
	}
}

// RunOnce builds one snapshot and writes it. Source degradation is
// recorded inside the snapshot; only an assembly/write failure is an
// error.
func (a *App) RunOnce(ctx context.Context) error {
	snap := a.assembler.Build(ctx)

	path := a.config.Snapshot.OutputPath
	if err := snapshot.Write(snap, path); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	a.logger.Info().Str("path", path).Str("run_id", snap.RunID).Msg("Snapshot written")
	return nil
}

// RunScheduled runs once immediately, then re-runs on the configured cron
// expression until the context is cancelled.
func (a *App) RunScheduled(ctx context.Context) error {
	if err := a.RunOnce(ctx); err != nil {
		return err
	}

	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.config.Schedule.Cron, func() {
		if err := a.RunOnce(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Scheduled snapshot run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.config.Schedule.Cron, err)
	}

	a.logger.Info().Str("schedule", a.config.Schedule.Cron).Msg("Scheduler started")
	a.cron.Start()
	<-ctx.Done()

	stopCtx := a.cron.Stop()
	<-stopCtx.Done()
	a.logger.Info().Msg("Scheduler stopped")
	return nil
}
