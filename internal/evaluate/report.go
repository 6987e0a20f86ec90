package evaluate

import (
	"fmt"
	"strings"

	"github.com/Alias1177/ChainGuard/models"
)

// FormatResults renders evaluation results for terminal output
func FormatResults(r *Results) string {
	var b strings.Builder

	b.WriteString("\n===== EVALUATION RESULTS =====\n")
	fmt.Fprintf(&b, "Rounds: %d | Vectors: %d | Threshold: %.4f\n", r.Rounds, r.TotalVectors, r.Threshold)
	fmt.Fprintf(&b, "TP: %d | FP: %d | TN: %d | FN: %d\n",
		r.TruePositives, r.FalsePositives, r.TrueNegatives, r.FalseNegatives)
	fmt.Fprintf(&b, "Precision: %.2f%%\n", r.Precision)
	fmt.Fprintf(&b, "Recall: %.2f%%\n", r.Recall)
	fmt.Fprintf(&b, "F1: %.2f%%\n", r.F1)
	fmt.Fprintf(&b, "Accuracy: %.2f%%\n", r.Accuracy)
	fmt.Fprintf(&b, "Classification accuracy: %.2f%%\n", r.ClassificationAccuracy)

	b.WriteString("\nPer attack type:\n")
	for _, attack := range models.AttackTypes {
		stats, ok := r.PerAttack[attack]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %d/%d detected (%.2f%%), %d classified\n",
			attack, stats.Detected, stats.Total, stats.Recall, stats.Classified)
	}

	if len(r.RoundRecall) > 0 {
		b.WriteString("\nRecall by round:")
		for _, recall := range r.RoundRecall {
			fmt.Fprintf(&b, " %.1f%%", recall)
		}
		b.WriteString("\n")
	}

	return b.String()
}
