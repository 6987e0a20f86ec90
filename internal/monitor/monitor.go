package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChainGuard/internal/analyze"
	"github.com/Alias1177/ChainGuard/internal/detection"
	"github.com/Alias1177/ChainGuard/internal/metrics"
	"github.com/Alias1177/ChainGuard/models"
)

// Store persists detection results
type Store interface {
	SaveResults(ctx context.Context, batchID string, results []models.AnomalyResult) error
}

// Alerter notifies about a detection pass; it reports whether an alert went out
type Alerter interface {
	Notify(ctx context.Context, batchID string, summary models.BatchSummary, results []models.AnomalyResult) (bool, error)
}

// Options holds monitor settings. Nil Store, Alerter or Metrics disable that stage.
type Options struct {
	ReferenceSize int
	BatchSize     int
	Interval      time.Duration

	Store   Store
	Alerter Alerter
	Metrics *metrics.Metrics
}

// Report is the outcome of one detection pass
type Report struct {
	BatchID string
	Results []models.AnomalyResult
	Summary models.BatchSummary
	Alerted bool
}

// Monitor polls a feature source and runs every batch through the engine
type Monitor struct {
	source models.FeatureSource
	engine *detection.Engine
	opts   Options
	logger zerolog.Logger
}

// New creates a monitor
func New(source models.FeatureSource, engine *detection.Engine, opts Options) *Monitor {
	if opts.ReferenceSize <= 0 {
		opts.ReferenceSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}

	return &Monitor{
		source: source,
		engine: engine,
		opts:   opts,
		logger: log.With().Str("component", "monitor").Logger(),
	}
}

// Train fits the engine on a reference batch from the source
func (m *Monitor) Train(ctx context.Context) error {
	reference, err := m.source.ReferenceBatch(ctx, m.opts.ReferenceSize)
	if err != nil {
		return fmt.Errorf("fetching reference batch: %w", err)
	}
	if err := m.engine.TrainModel(reference); err != nil {
		return err
	}

	if m.opts.Metrics != nil {
		if threshold, err := m.engine.Threshold(); err == nil {
			m.opts.Metrics.Threshold.Set(threshold)
		}
	}
	return nil
}

// RunOnce fetches one live batch, scores it, then stores and alerts
func (m *Monitor) RunOnce(ctx context.Context) (*Report, error) {
	batch, err := m.source.LiveBatch(ctx, m.opts.BatchSize)
	if err != nil {
		m.batchFailed()
		return nil, fmt.Errorf("fetching live batch: %w", err)
	}

	start := time.Now()
	results, err := m.engine.DetectAnomalies(batch)
	if err != nil {
		m.batchFailed()
		return nil, fmt.Errorf("detecting anomalies: %w", err)
	}
	elapsed := time.Since(start)

	report := &Report{
		BatchID: uuid.NewString(),
		Results: results,
		Summary: analyze.Summarize(results),
	}
	if m.opts.Metrics != nil {
		m.opts.Metrics.ObserveBatch(report.Summary, elapsed)
	}

	m.logger.Info().
		Str("batch_id", report.BatchID).
		Int("processed", report.Summary.Processed).
		Int("anomalies", report.Summary.Anomalies).
		Float64("detection_rate", report.Summary.DetectionRate).
		Dur("elapsed", elapsed).
		Msg("Batch processed")

	var errs []error
	if m.opts.Store != nil {
		if err := m.opts.Store.SaveResults(ctx, report.BatchID, results); err != nil {
			m.logger.Error().Err(err).Str("batch_id", report.BatchID).Msg("Failed to save results")
			errs = append(errs, fmt.Errorf("saving results: %w", err))
		}
	}

	if m.opts.Alerter != nil {
		alerted, err := m.opts.Alerter.Notify(ctx, report.BatchID, report.Summary, results)
		report.Alerted = alerted
		m.alertOutcome(alerted, err)
		if err != nil {
			m.logger.Error().Err(err).Str("batch_id", report.BatchID).Msg("Failed to send alert")
			errs = append(errs, err)
		}
	}

	return report, errors.Join(errs...)
}

// Run trains if needed, then processes a batch every interval until ctx is done.
// Failed passes are logged and the loop continues.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.engine.Trained() {
		if err := m.Train(ctx); err != nil {
			return err
		}
	}

	m.logger.Info().Dur("interval", m.opts.Interval).Int("batch_size", m.opts.BatchSize).Msg("Monitor started")

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error().Err(err).Msg("Detection pass failed")
		}

		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) batchFailed() {
	if m.opts.Metrics != nil {
		m.opts.Metrics.BatchFailed()
	}
}

func (m *Monitor) alertOutcome(alerted bool, err error) {
	if m.opts.Metrics == nil {
		return
	}
	outcome := "skipped"
	switch {
	case err != nil:
		outcome = "failed"
	case alerted:
		outcome = "sent"
	}
	m.opts.Metrics.AlertsTotal.WithLabelValues(outcome).Inc()
}
