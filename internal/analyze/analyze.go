package analyze

import (
	"github.com/Alias1177/ChainGuard/models"
)

// Summarize aggregates one detection pass into dashboard-style counters
func Summarize(results []models.AnomalyResult) models.BatchSummary {
	summary := models.BatchSummary{
		Processed: len(results),
		ByAttack:  make(map[models.AttackType]int),
		ByRisk:    make(map[models.RiskLevel]int),
	}

	var totalConfidence float64
	for _, r := range results {
		summary.ByRisk[r.Risk()]++
		if !r.IsAnomaly {
			continue
		}

		summary.Anomalies++
		summary.ByAttack[r.AttackType]++
		totalConfidence += r.Confidence
		if r.Confidence > summary.MaxConfidence {
			summary.MaxConfidence = r.Confidence
		}

		if r.ClusterLabel != nil {
			if summary.ByCluster == nil {
				summary.ByCluster = make(map[int]int)
			}
			summary.ByCluster[*r.ClusterLabel]++
		}
	}

	if summary.Processed > 0 {
		summary.DetectionRate = float64(summary.Anomalies) * 100 / float64(summary.Processed)
	}
	if summary.Anomalies > 0 {
		summary.AvgConfidence = totalConfidence / float64(summary.Anomalies)
	}

	return summary
}

// CompareFeatures contrasts the mean raw features of anomalous and normal vectors
func CompareFeatures(results []models.AnomalyResult) []models.FeatureComparison {
	var normalSum, anomalySum [models.FeatureCount]float64
	var normalCount, anomalyCount int

	for _, r := range results {
		values := r.Features.Values()
		for i, v := range values {
			if r.IsAnomaly {
				anomalySum[i] += v
			} else {
				normalSum[i] += v
			}
		}
		if r.IsAnomaly {
			anomalyCount++
		} else {
			normalCount++
		}
	}

	comparison := make([]models.FeatureComparison, models.FeatureCount)
	for i, name := range models.FeatureNames {
		c := models.FeatureComparison{Feature: name}
		if normalCount > 0 {
			c.NormalMean = normalSum[i] / float64(normalCount)
		}
		if anomalyCount > 0 {
			c.AnomalyMean = anomalySum[i] / float64(anomalyCount)
		}
		if c.NormalMean != 0 {
			c.RelativeDiff = (c.AnomalyMean - c.NormalMean) / c.NormalMean
		}
		comparison[i] = c
	}

	return comparison
}

// TopAnomalies returns anomalies with confidence at or above minConfidence, in input order
func TopAnomalies(results []models.AnomalyResult, minConfidence float64) []models.AnomalyResult {
	var out []models.AnomalyResult
	for _, r := range results {
		if r.IsAnomaly && r.Confidence >= minConfidence {
			out = append(out, r)
		}
	}
	return out
}
