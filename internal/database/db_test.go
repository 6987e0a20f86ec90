package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ChainGuard/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func result(anomaly bool, confidence float64, attack models.AttackType, label *int, at time.Time) models.AnomalyResult {
	return models.AnomalyResult{
		IsAnomaly:    anomaly,
		Confidence:   confidence,
		Distance:     confidence / 100,
		AttackType:   attack,
		ClusterLabel: label,
		Features: models.FeatureVector{
			BlockchainSize:         400,
			HashRate:               200,
			Difficulty:             50,
			TransactionVolume:      5000,
			MedianConfirmationTime: 10,
			AvgBlockSize:           1.5,
			UniqueTransactions:     300000,
		},
		Timestamp: at,
	}
}

func intPtr(v int) *int { return &v }

func TestOpenIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, createTables(context.Background(), db.DB))
}

func TestSaveAndRecentAnomalies(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := []models.AnomalyResult{
		result(false, 0, "", nil, base),
		result(true, 80, models.AttackDDoS, intPtr(2), base),
	}
	second := []models.AnomalyResult{
		result(true, 100, models.Attack51Percent, intPtr(0), base.Add(time.Hour)),
		result(false, 0, "", nil, base.Add(time.Hour)),
		result(true, 55, models.AttackUnknown, nil, base.Add(time.Hour)),
	}

	firstID, secondID := uuid.NewString(), uuid.NewString()
	require.NoError(t, db.SaveResults(ctx, firstID, first))
	require.NoError(t, db.SaveResults(ctx, secondID, second))

	records, err := db.RecentAnomalies(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// newest batch first, later positions first within a batch
	assert.Equal(t, secondID, records[0].BatchID)
	assert.Equal(t, 2, records[0].Position)
	assert.Equal(t, models.AttackUnknown, records[0].AttackType)
	assert.Nil(t, records[0].ClusterLabel)

	assert.Equal(t, 0, records[1].Position)
	assert.Equal(t, models.Attack51Percent, records[1].AttackType)
	require.NotNil(t, records[1].ClusterLabel)
	assert.Equal(t, 0, *records[1].ClusterLabel)
	assert.Equal(t, 100.0, records[1].Confidence)
	assert.True(t, records[1].IsAnomaly)
	assert.Equal(t, first[1].Features, records[2].Features)
	assert.WithinDuration(t, base, records[2].Timestamp, time.Second)

	for _, rec := range records {
		_, err := uuid.Parse(rec.ID)
		assert.NoError(t, err)
	}

	limited, err := db.RecentAnomalies(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCountByAttack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveResults(ctx, uuid.NewString(), []models.AnomalyResult{
		result(true, 90, models.AttackDDoS, intPtr(0), now),
		result(true, 70, models.AttackDDoS, intPtr(1), now),
		result(true, 60, models.AttackDoubleSpending, intPtr(1), now),
		result(false, 0, "", nil, now),
	}))

	counts, err := db.CountByAttack(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.AttackType]int{
		models.AttackDDoS:           2,
		models.AttackDoubleSpending: 1,
	}, counts)
}

func TestSaveEmptyBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveResults(ctx, uuid.NewString(), nil))

	records, err := db.RecentAnomalies(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
