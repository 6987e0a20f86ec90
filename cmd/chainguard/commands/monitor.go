package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/ChainGuard/internal/api/blockchaininfo"
	"github.com/Alias1177/ChainGuard/internal/config"
	"github.com/Alias1177/ChainGuard/internal/database"
	"github.com/Alias1177/ChainGuard/internal/metrics"
	"github.com/Alias1177/ChainGuard/internal/monitor"
	"github.com/Alias1177/ChainGuard/internal/notify"
	"github.com/Alias1177/ChainGuard/models"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Train on a reference batch and score live batches on an interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runMonitor(ctx, cfg)
	},
}

func runMonitor(ctx context.Context, c *config.Config) error {
	opts := monitor.Options{
		ReferenceSize: c.ReferenceSize,
		BatchSize:     c.BatchSize,
		Interval:      c.PollInterval,
		Metrics:       metrics.New(),
	}

	if c.DBDriver != "" {
		db, err := database.Open(ctx, c.DBDriver, c.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Store = db
		log.Info().Str("driver", c.DBDriver).Msg("Result store connected")
	}

	if c.TelegramBotToken != "" {
		notifier, err := notify.NewTelegramNotifier(c.TelegramBotToken, notify.Options{
			ChatID:          c.TelegramChatID,
			MinConfidence:   c.AlertMinConfidence,
			AlertsPerMinute: c.AlertsPerMinute,
		})
		if err != nil {
			return err
		}
		opts.Alerter = notifier
	}

	if c.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", opts.Metrics.Handler())
		srv := &http.Server{Addr: c.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.Info().Str("addr", c.MetricsAddr).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return monitor.New(newSource(c), newEngine(c), opts).Run(ctx)
}

func newSource(c *config.Config) models.FeatureSource {
	if c.FeedBaseURL == "" {
		log.Info().Uint64("seed", c.GeneratorSeed).Float64("anomaly_rate", c.AnomalyRate).Msg("Using synthetic feature source")
		return newGenerator(c)
	}

	log.Info().Str("base_url", c.FeedBaseURL).Str("timespan", c.FeedTimespan).Msg("Using blockchain.com charts feed")
	return blockchaininfo.NewClient(blockchaininfo.ClientOptions{
		BaseURL:         c.FeedBaseURL,
		Timespan:        c.FeedTimespan,
		RequestTimeout:  time.Duration(c.RequestTimeout) * time.Second,
		RequestsPerSec:  c.RequestsPerSec,
		MaxRetries:      3,
		MaxRetryTimeout: 30 * time.Second,
	})
}
