package analyze

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/ChainGuard/models"
)

func label(l int) *int { return &l }

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		results  []models.AnomalyResult
		expected models.BatchSummary
	}{
		{
			name:    "Empty batch",
			results: nil,
			expected: models.BatchSummary{
				ByAttack: map[models.AttackType]int{},
				ByRisk:   map[models.RiskLevel]int{},
			},
		},
		{
			name: "No anomalies",
			results: generateTestResults(4, func(i int) models.AnomalyResult {
				return models.AnomalyResult{Confidence: 20, Distance: 0.2}
			}),
			expected: models.BatchSummary{
				Processed: 4,
				ByAttack:  map[models.AttackType]int{},
				ByRisk:    map[models.RiskLevel]int{models.RiskNone: 4},
			},
		},
		{
			name: "Mixed batch",
			results: []models.AnomalyResult{
				{},
				{IsAnomaly: true, Confidence: 100, AttackType: models.AttackDDoS, ClusterLabel: label(2)},
				{IsAnomaly: true, Confidence: 60, AttackType: models.AttackDDoS, ClusterLabel: label(0)},
				{IsAnomaly: true, Confidence: 40, AttackType: models.AttackUnknown, ClusterLabel: label(2)},
				{},
			},
			expected: models.BatchSummary{
				Processed:     5,
				Anomalies:     3,
				DetectionRate: 60,
				AvgConfidence: 200.0 / 3,
				MaxConfidence: 100,
				ByAttack:      map[models.AttackType]int{models.AttackDDoS: 2, models.AttackUnknown: 1},
				ByRisk: map[models.RiskLevel]int{
					models.RiskNone:   2,
					models.RiskHigh:   1,
					models.RiskMedium: 1,
					models.RiskLow:    1,
				},
				ByCluster: map[int]int{0: 1, 2: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.results))
		})
	}
}

func TestRiskLevels(t *testing.T) {
	tests := []struct {
		name     string
		result   models.AnomalyResult
		expected models.RiskLevel
	}{
		{name: "Normal point", result: models.AnomalyResult{Confidence: 99}, expected: models.RiskNone},
		{name: "High", result: models.AnomalyResult{IsAnomaly: true, Confidence: 75.1}, expected: models.RiskHigh},
		{name: "Boundary 75 is medium", result: models.AnomalyResult{IsAnomaly: true, Confidence: 75}, expected: models.RiskMedium},
		{name: "Boundary 50 is low", result: models.AnomalyResult{IsAnomaly: true, Confidence: 50}, expected: models.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Risk())
		})
	}
}

func TestCompareFeatures(t *testing.T) {
	results := []models.AnomalyResult{
		{Features: models.FeatureVector{BlockchainSize: 200, AvgBlockSize: 1}},
		{Features: models.FeatureVector{BlockchainSize: 300, AvgBlockSize: 1}},
		{IsAnomaly: true, Features: models.FeatureVector{BlockchainSize: 750, AvgBlockSize: 2}},
	}

	comparison := CompareFeatures(results)
	assert.Len(t, comparison, models.FeatureCount)

	size := comparison[0]
	assert.Equal(t, "blockchain_size", size.Feature)
	assert.Equal(t, 250.0, size.NormalMean)
	assert.Equal(t, 750.0, size.AnomalyMean)
	assert.Equal(t, 2.0, size.RelativeDiff)

	hash := comparison[1]
	assert.Equal(t, 0.0, hash.RelativeDiff, "zero normal mean yields zero diff")

	block := comparison[5]
	assert.Equal(t, 1.0, block.RelativeDiff)
}

func TestTopAnomalies(t *testing.T) {
	results := []models.AnomalyResult{
		{IsAnomaly: true, Confidence: 90},
		{Confidence: 95},
		{IsAnomaly: true, Confidence: 30},
		{IsAnomaly: true, Confidence: 50},
	}

	top := TopAnomalies(results, 50)
	assert.Len(t, top, 2)
	assert.Equal(t, 90.0, top[0].Confidence)
	assert.Equal(t, 50.0, top[1].Confidence)
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(models.BatchSummary{
		Processed:     10,
		Anomalies:     2,
		DetectionRate: 20,
		AvgConfidence: 80,
		MaxConfidence: 100,
		ByAttack:      map[models.AttackType]int{models.AttackDoubleSpending: 2},
		ByRisk:        map[models.RiskLevel]int{models.RiskHigh: 1, models.RiskMedium: 1},
		ByCluster:     map[int]int{1: 2},
	})

	assert.Contains(t, out, "Processed: 10 | Anomalies: 2 | Detection Rate: 20.0%")
	assert.Contains(t, out, "- Double Spending: 2")
	assert.Contains(t, out, "- DDoS Attack: 0")
	assert.Contains(t, out, "Risk: HIGH 1 | MEDIUM 1 | LOW 0")
	assert.Contains(t, out, "Clusters: #1=2")
}

func TestFormatAnomaly(t *testing.T) {
	line := FormatAnomaly(models.AnomalyResult{
		IsAnomaly:  true,
		Confidence: 100,
		AttackType: models.Attack51Percent,
		Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	assert.True(t, strings.HasPrefix(line, "2024-01-02 03:04:05 | 51% Vulnerability | confidence 100.0 (HIGH) | cluster -"))
}

func TestFormatDigest(t *testing.T) {
	out := FormatDigest(
		map[models.AttackType]int{models.AttackDDoS: 3, models.AttackUnknown: 1},
		[]models.AnomalyResult{{IsAnomaly: true, Confidence: 60, AttackType: models.AttackDDoS, ClusterLabel: label(2)}},
	)

	assert.Contains(t, out, "Stored anomalies: 4")
	assert.Contains(t, out, "- DDoS Attack: 3")
	assert.Contains(t, out, "- Double Spending: 0")
	assert.Contains(t, out, "Latest 1:")
	assert.Contains(t, out, "DDoS Attack | confidence 60.0 (MEDIUM) | cluster 2")

	assert.NotContains(t, FormatDigest(nil, nil), "Latest")
}

func generateTestResults(n int, generator func(int) models.AnomalyResult) []models.AnomalyResult {
	results := make([]models.AnomalyResult, n)
	for i := 0; i < n; i++ {
		results[i] = generator(i)
	}
	return results
}
