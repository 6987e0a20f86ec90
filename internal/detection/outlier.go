package detection

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultPercentile is the share of training points that fall within the threshold
const DefaultPercentile = 95.0

// Prediction is the outcome of scoring one normalized point
type Prediction struct {
	IsOutlier bool
	Distance  float64
}

// CentroidDetector flags points whose distance from the training centroid
// exceeds a percentile of the training distances. It stands in for a
// one-class SVM: no kernel, just a centroid and a radius.
type CentroidDetector struct {
	percentile float64
	centroid   []float64
	threshold  float64
	trained    bool
}

// NewCentroidDetector creates an untrained detector. Percentiles outside (0,100] fall back to 95.
func NewCentroidDetector(percentile float64) *CentroidDetector {
	if percentile <= 0 || percentile > 100 {
		percentile = DefaultPercentile
	}
	return &CentroidDetector{percentile: percentile}
}

// Train computes the centroid and threshold from normalized reference points.
// Calling it again replaces the previous state.
func (d *CentroidDetector) Train(points [][]float64) error {
	if len(points) == 0 {
		return ErrEmptyBatch
	}

	dim := len(points[0])
	for j, p := range points {
		if len(p) != dim {
			return fmt.Errorf("%w: point %d has %d components, want %d", ErrDimensionMismatch, j, len(p), dim)
		}
	}

	column := make([]float64, len(points))
	centroid := make([]float64, dim)
	for i := 0; i < dim; i++ {
		for j, p := range points {
			column[j] = p[i]
		}
		centroid[i] = stat.Mean(column, nil)
	}

	distances := make([]float64, len(points))
	for j, p := range points {
		distances[j] = floats.Distance(p, centroid, 2)
	}
	sort.Float64s(distances)

	d.centroid = centroid
	d.threshold = distances[percentileIndex(d.percentile, len(distances))]
	d.trained = true
	return nil
}

// percentileIndex returns ceil(p/100*n)-1 clamped to [0, n-1]
func percentileIndex(p float64, n int) int {
	idx := int(math.Ceil(p*float64(n)/100)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// Predict scores a normalized point. It does not modify the detector.
func (d *CentroidDetector) Predict(point []float64) (Prediction, error) {
	if !d.trained {
		return Prediction{}, ErrNotTrained
	}
	if len(point) != len(d.centroid) {
		return Prediction{}, fmt.Errorf("%w: got %d components, want %d", ErrDimensionMismatch, len(point), len(d.centroid))
	}

	distance := floats.Distance(point, d.centroid, 2)
	return Prediction{
		IsOutlier: distance > d.threshold,
		Distance:  distance,
	}, nil
}

// Trained reports whether Train has succeeded at least once
func (d *CentroidDetector) Trained() bool {
	return d.trained
}

// Threshold returns the learned distance threshold
func (d *CentroidDetector) Threshold() float64 {
	return d.threshold
}

// Centroid returns a copy of the training centroid
func (d *CentroidDetector) Centroid() []float64 {
	out := make([]float64, len(d.centroid))
	copy(out, d.centroid)
	return out
}
