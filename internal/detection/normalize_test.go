package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ChainGuard/internal/generator"
	"github.com/Alias1177/ChainGuard/models"
)

func TestNormalizeUnitInterval(t *testing.T) {
	batch := generator.New(11, 0.3).NormalBatch(300)
	batch = append(batch, generator.New(12, 0).Attack(models.AttackDDoS))

	points, err := Normalize(batch)
	require.NoError(t, err)
	require.Len(t, points, len(batch))

	for _, p := range points {
		require.Len(t, p, models.FeatureCount)
		for _, v := range p {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestNormalizeKnownValues(t *testing.T) {
	batch := []models.FeatureVector{
		{BlockchainSize: 100, HashRate: 5, Difficulty: 1, TransactionVolume: 0, MedianConfirmationTime: 10, AvgBlockSize: 1, UniqueTransactions: 7},
		{BlockchainSize: 300, HashRate: 5, Difficulty: 2, TransactionVolume: 0, MedianConfirmationTime: 0, AvgBlockSize: 2, UniqueTransactions: 7},
		{BlockchainSize: 200, HashRate: 5, Difficulty: 3, TransactionVolume: 0, MedianConfirmationTime: 5, AvgBlockSize: 3, UniqueTransactions: 7},
	}

	points, err := Normalize(batch)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0, 0, 1, 0, 0}, points[0])
	assert.Equal(t, []float64{1, 0, 0.5, 0, 0, 0.5, 0}, points[1])
	assert.Equal(t, []float64{0.5, 0, 1, 0, 0.5, 1, 0}, points[2])
}

func TestNormalizeSingleVector(t *testing.T) {
	points, err := Normalize([]models.FeatureVector{{BlockchainSize: 42, HashRate: 1}})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, models.FeatureCount), points[0])
}

func TestNormalizeEmptyBatch(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = FitScaler([]models.FeatureVector{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestScalerTransformOutsideFittedRange(t *testing.T) {
	scaler, err := FitScaler([]models.FeatureVector{{BlockchainSize: 200}, {BlockchainSize: 300}})
	require.NoError(t, err)

	points := scaler.Transform([]models.FeatureVector{{BlockchainSize: 700}})
	assert.InDelta(t, 5.0, points[0][0], 1e-9)
}
