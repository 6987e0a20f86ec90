package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ChainGuard/internal/database"
	"github.com/Alias1177/ChainGuard/internal/evaluate"
	"github.com/Alias1177/ChainGuard/models"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REFERENCE_SIZE", "200")
	t.Setenv("BATCH_SIZE", "50")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDetectCommand(t *testing.T) {
	batch := []models.FeatureVector{
		{BlockchainSize: 420, HashRate: 250, Difficulty: 60, TransactionVolume: 6000, MedianConfirmationTime: 12, AvgBlockSize: 1.8, UniqueTransactions: 350000},
		{BlockchainSize: 450, HashRate: 280, Difficulty: 70, TransactionVolume: 7000, MedianConfirmationTime: 15, AvgBlockSize: 2.0, UniqueTransactions: 400000},
		{BlockchainSize: 400, HashRate: 200, Difficulty: 50, TransactionVolume: 5000, MedianConfirmationTime: 10, AvgBlockSize: 1.5, UniqueTransactions: 950000},
	}
	data, err := json.Marshal(batch)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	stdout, stderr, err := execute(t, "detect", "--input", path, "--log-level", "error")
	require.NoError(t, err)

	var results []models.AnomalyResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, len(batch))
	for i, r := range results {
		assert.Equal(t, batch[i], r.Features)
	}
	assert.Contains(t, stderr, "DETECTION SUMMARY")
	assert.Contains(t, stderr, "Processed: 3")
}

func TestDetectRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o600))

	_, _, err := execute(t, "detect", "--input", path)
	assert.ErrorContains(t, err, "parsing input")
}

func TestEvaluateCommandJSON(t *testing.T) {
	stdout, _, err := execute(t, "evaluate", "--rounds", "2", "--json", "--log-level", "error")
	require.NoError(t, err)

	var results evaluate.Results
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, 2, results.Rounds)
	assert.Equal(t, 100, results.TotalVectors)
}

func TestReportCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "results.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", dsn)

	db, err := database.Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, db.SaveResults(context.Background(), "batch", []models.AnomalyResult{
		{IsAnomaly: true, Confidence: 90, AttackType: models.AttackDDoS, Timestamp: time.Now()},
		{IsAnomaly: false, Timestamp: time.Now()},
	}))
	require.NoError(t, db.Close())

	stdout, _, err := execute(t, "report", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stored anomalies: 1")
	assert.Contains(t, stdout, "- DDoS Attack: 1")
}

func TestReportRequiresStore(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	_, _, err := execute(t, "report")
	assert.ErrorContains(t, err, "DB_DRIVER")
}
