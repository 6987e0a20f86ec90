package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Alias1177/ChainGuard/models"
)

// FormatSummary renders a batch summary for terminal output
func FormatSummary(s models.BatchSummary) string {
	var b strings.Builder

	b.WriteString("\n===== DETECTION SUMMARY =====\n")
	fmt.Fprintf(&b, "Processed: %d | Anomalies: %d | Detection Rate: %.1f%%\n",
		s.Processed, s.Anomalies, s.DetectionRate)
	if s.Anomalies > 0 {
		fmt.Fprintf(&b, "Confidence: avg %.1f, max %.1f\n", s.AvgConfidence, s.MaxConfidence)
	}

	b.WriteString("\nAttack Distribution:\n")
	for _, attack := range models.AttackTypes {
		fmt.Fprintf(&b, "- %s: %d\n", attack, s.ByAttack[attack])
	}

	fmt.Fprintf(&b, "\nRisk: HIGH %d | MEDIUM %d | LOW %d\n",
		s.ByRisk[models.RiskHigh], s.ByRisk[models.RiskMedium], s.ByRisk[models.RiskLow])

	if len(s.ByCluster) > 0 {
		labels := make([]int, 0, len(s.ByCluster))
		for l := range s.ByCluster {
			labels = append(labels, l)
		}
		sort.Ints(labels)

		b.WriteString("Clusters: ")
		for i, l := range labels {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "#%d=%d", l, s.ByCluster[l])
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatComparison renders the anomaly vs normal feature means
func FormatComparison(comparison []models.FeatureComparison) string {
	var b strings.Builder

	b.WriteString("\n===== FEATURE COMPARISON =====\n")
	for _, c := range comparison {
		fmt.Fprintf(&b, "%-26s normal %14.4g | anomaly %14.4g | %+7.1f%%\n",
			c.Feature, c.NormalMean, c.AnomalyMean, c.RelativeDiff*100)
	}

	return b.String()
}

// FormatAnomaly renders one flagged result as a single line
func FormatAnomaly(r models.AnomalyResult) string {
	cluster := "-"
	if r.ClusterLabel != nil {
		cluster = fmt.Sprintf("%d", *r.ClusterLabel)
	}
	return fmt.Sprintf("%s | %s | confidence %.1f (%s) | cluster %s | size %.1f hash %.3g difficulty %.3g volume %.3g confirm %.1f block %.2f txs %.0f",
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.AttackType,
		r.Confidence,
		r.Risk(),
		cluster,
		r.Features.BlockchainSize,
		r.Features.HashRate,
		r.Features.Difficulty,
		r.Features.TransactionVolume,
		r.Features.MedianConfirmationTime,
		r.Features.AvgBlockSize,
		r.Features.UniqueTransactions,
	)
}

// FormatDigest renders stored totals per attack type followed by the latest anomalies
func FormatDigest(counts map[models.AttackType]int, recent []models.AnomalyResult) string {
	var b strings.Builder

	total := 0
	for _, c := range counts {
		total += c
	}

	b.WriteString("\n===== ANOMALY DIGEST =====\n")
	fmt.Fprintf(&b, "Stored anomalies: %d\n", total)
	for _, attack := range models.AttackTypes {
		fmt.Fprintf(&b, "- %s: %d\n", attack, counts[attack])
	}

	if len(recent) > 0 {
		fmt.Fprintf(&b, "\nLatest %d:\n", len(recent))
		for _, r := range recent {
			b.WriteString(FormatAnomaly(r))
			b.WriteString("\n")
		}
	}

	return b.String()
}
