package detection

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChainGuard/models"
)

// NormalizationMode selects which statistics scale a live batch
type NormalizationMode string

const (
	// NormalizeBatch scales every batch against its own min/max
	NormalizeBatch NormalizationMode = "batch"
	// NormalizeReference reuses the min/max of the training batch
	NormalizeReference NormalizationMode = "reference"
)

// Options configures an Engine
type Options struct {
	Percentile    float64
	MaxIterations int
	Seed          uint64
	Normalization NormalizationMode
	// Now stamps results; defaults to time.Now
	Now func() time.Time
}

// DefaultOptions returns the standard engine configuration
func DefaultOptions() Options {
	return Options{
		Percentile:    DefaultPercentile,
		MaxIterations: DefaultMaxIterations,
		Seed:          42,
		Normalization: NormalizeBatch,
		Now:           time.Now,
	}
}

// Engine runs the two-stage pipeline: centroid outlier detection followed by
// clustering and rule-based attack classification of the outliers.
//
// Training takes an exclusive lock and swaps in a freshly trained detector,
// so callers may share one Engine between goroutines.
type Engine struct {
	mu        sync.RWMutex
	opts      Options
	detector  *CentroidDetector
	reference *Scaler
	logger    zerolog.Logger
}

// NewEngine creates an untrained engine
func NewEngine(opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.Percentile <= 0 || opts.Percentile > 100 {
		opts.Percentile = defaults.Percentile
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaults.MaxIterations
	}
	if opts.Normalization == "" {
		opts.Normalization = defaults.Normalization
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &Engine{
		opts:   opts,
		logger: log.With().Str("component", "detection_engine").Logger(),
	}
}

// TrainModel fits the outlier detector on a batch of normal reference data
func (e *Engine) TrainModel(batch []models.FeatureVector) error {
	if len(batch) == 0 {
		return fmt.Errorf("training: %w", ErrEmptyBatch)
	}
	if err := validateBatch(batch); err != nil {
		return fmt.Errorf("training: %w", err)
	}

	scaler, err := FitScaler(batch)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	detector := NewCentroidDetector(e.opts.Percentile)
	if err := detector.Train(scaler.Transform(batch)); err != nil {
		return fmt.Errorf("training: %w", err)
	}

	e.mu.Lock()
	e.detector = detector
	e.reference = scaler
	e.mu.Unlock()

	e.logger.Info().
		Int("samples", len(batch)).
		Float64("threshold", detector.Threshold()).
		Float64("percentile", e.opts.Percentile).
		Msg("Model trained")
	return nil
}

// Trained reports whether TrainModel has succeeded
func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.detector != nil
}

// Threshold returns the trained distance threshold
func (e *Engine) Threshold() (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.detector == nil {
		return 0, ErrNotTrained
	}
	return e.detector.Threshold(), nil
}

// DetectAnomalies scores a live batch and returns one result per input vector,
// in input order. Outliers get an attack type and a cluster label.
func (e *Engine) DetectAnomalies(batch []models.FeatureVector) ([]models.AnomalyResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.detector == nil {
		return nil, ErrNotTrained
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("detection: %w", ErrEmptyBatch)
	}
	if err := validateBatch(batch); err != nil {
		return nil, fmt.Errorf("detection: %w", err)
	}

	points, err := e.normalize(batch)
	if err != nil {
		return nil, fmt.Errorf("detection: %w", err)
	}

	results := make([]models.AnomalyResult, len(batch))
	var outliers []int
	for i, p := range points {
		pred, err := e.detector.Predict(p)
		if err != nil {
			return nil, fmt.Errorf("predicting vector %d: %w", i, err)
		}
		results[i] = models.AnomalyResult{
			IsAnomaly:  pred.IsOutlier,
			Confidence: math.Min(pred.Distance*100, 100),
			Distance:   pred.Distance,
			Features:   batch[i],
			Timestamp:  e.opts.Now(),
		}
		if pred.IsOutlier {
			outliers = append(outliers, i)
		}
	}

	labels, err := e.clusterOutliers(points, outliers)
	if err != nil {
		return nil, fmt.Errorf("clustering outliers: %w", err)
	}

	for n, idx := range outliers {
		label := labels[n]
		results[idx].ClusterLabel = &label
		results[idx].AttackType = Classify(batch[idx])
	}

	e.logger.Debug().
		Int("processed", len(batch)).
		Int("anomalies", len(outliers)).
		Bool("clustered", len(outliers) >= ClusterCount).
		Msg("Detection pass complete")
	return results, nil
}

func (e *Engine) normalize(batch []models.FeatureVector) ([][]float64, error) {
	if e.opts.Normalization == NormalizeReference {
		return e.reference.Transform(batch), nil
	}
	return Normalize(batch)
}

// clusterOutliers runs k-means over the outlier points. With fewer outliers
// than clusters every outlier lands in group 0.
func (e *Engine) clusterOutliers(points [][]float64, outliers []int) ([]int, error) {
	if len(outliers) == 0 {
		return nil, nil
	}
	if len(outliers) < ClusterCount {
		return make([]int, len(outliers)), nil
	}

	subset := make([][]float64, len(outliers))
	for n, idx := range outliers {
		subset[n] = points[idx]
	}
	return NewKMeans(ClusterCount, e.opts.MaxIterations, e.opts.Seed).Fit(subset)
}

func validateBatch(batch []models.FeatureVector) error {
	for i, f := range batch {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return nil
}
