package detection

import (
	"gonum.org/v1/gonum/floats"

	"github.com/Alias1177/ChainGuard/models"
)

// Scaler holds per-dimension min and range for min-max scaling
type Scaler struct {
	Min   []float64
	Range []float64
}

// FitScaler computes per-dimension statistics over the batch.
// A constant dimension gets range 1 so it maps to 0 instead of dividing by zero.
func FitScaler(batch []models.FeatureVector) (*Scaler, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	s := &Scaler{
		Min:   make([]float64, models.FeatureCount),
		Range: make([]float64, models.FeatureCount),
	}

	rows := make([][]float64, len(batch))
	for j, f := range batch {
		rows[j] = f.Values()
	}

	column := make([]float64, len(batch))
	for i := 0; i < models.FeatureCount; i++ {
		for j, row := range rows {
			column[j] = row[i]
		}
		lo, hi := floats.Min(column), floats.Max(column)
		s.Min[i] = lo
		s.Range[i] = hi - lo
		if s.Range[i] == 0 {
			s.Range[i] = 1
		}
	}

	return s, nil
}

// Transform scales every vector with the stored statistics, preserving order.
// Vectors outside the fitted batch may land outside [0,1].
func (s *Scaler) Transform(batch []models.FeatureVector) [][]float64 {
	out := make([][]float64, len(batch))
	for j, f := range batch {
		values := f.Values()
		row := make([]float64, models.FeatureCount)
		for i, v := range values {
			row[i] = (v - s.Min[i]) / s.Range[i]
		}
		out[j] = row
	}
	return out
}

// Normalize min-max scales a batch against its own statistics.
// Nothing is remembered between calls.
func Normalize(batch []models.FeatureVector) ([][]float64, error) {
	s, err := FitScaler(batch)
	if err != nil {
		return nil, err
	}
	return s.Transform(batch), nil
}
