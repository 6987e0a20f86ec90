package evaluate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChainGuard/internal/detection"
	"github.com/Alias1177/ChainGuard/internal/generator"
	"github.com/Alias1177/ChainGuard/models"
)

// Options controls an evaluation run
type Options struct {
	Rounds        int
	BatchSize     int
	ReferenceSize int
}

// AttackStats tracks one attack type across rounds
type AttackStats struct {
	Total      int     `json:"total"`
	Detected   int     `json:"detected"`
	Classified int     `json:"classified"`
	Recall     float64 `json:"recall"`
}

// Results stores evaluation results. Rates, F1 included, are percentages.
type Results struct {
	Rounds         int `json:"rounds"`
	TotalVectors   int `json:"total_vectors"`
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`

	Precision              float64 `json:"precision"`
	Recall                 float64 `json:"recall"`
	F1                     float64 `json:"f1"`
	Accuracy               float64 `json:"accuracy"`
	ClassificationAccuracy float64 `json:"classification_accuracy"`

	PerAttack   map[models.AttackType]*AttackStats `json:"per_attack"`
	RoundRecall []float64                          `json:"round_recall"`
	Threshold   float64                            `json:"threshold"`
}

func newResults() *Results {
	return &Results{PerAttack: make(map[models.AttackType]*AttackStats)}
}

// Run trains the engine on generated normal data, then scores labeled batches
func Run(ctx context.Context, gen *generator.Generator, engine *detection.Engine, opts Options) (*Results, error) {
	if opts.Rounds <= 0 {
		opts.Rounds = 10
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.ReferenceSize <= 0 {
		opts.ReferenceSize = 1000
	}

	if err := engine.TrainModel(gen.NormalBatch(opts.ReferenceSize)); err != nil {
		return nil, err
	}

	results := newResults()
	if threshold, err := engine.Threshold(); err == nil {
		results.Threshold = threshold
	}

	for round := 0; round < opts.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		labeled := gen.LabeledBatch(opts.BatchSize)
		batch := make([]models.FeatureVector, len(labeled))
		for i, lv := range labeled {
			batch[i] = lv.Features
		}

		detected, err := engine.DetectAnomalies(batch)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round+1, err)
		}

		before := results.TruePositives
		attacks := results.TruePositives + results.FalseNegatives
		results.tally(labeled, detected)

		roundAttacks := results.TruePositives + results.FalseNegatives - attacks
		roundRecall := 0.0
		if roundAttacks > 0 {
			roundRecall = float64(results.TruePositives-before) / float64(roundAttacks) * 100
		}
		results.RoundRecall = append(results.RoundRecall, roundRecall)

		log.Debug().Int("round", round+1).Float64("recall", roundRecall).Msg("Evaluation round finished")
	}

	results.finalize()
	return results, nil
}

// tally adds one batch of ground truth and detections to the counters
func (r *Results) tally(labeled []models.LabeledVector, detected []models.AnomalyResult) {
	r.Rounds++
	for i, lv := range labeled {
		r.TotalVectors++
		res := detected[i]

		if lv.Label == "" {
			if res.IsAnomaly {
				r.FalsePositives++
			} else {
				r.TrueNegatives++
			}
			continue
		}

		stats, ok := r.PerAttack[lv.Label]
		if !ok {
			stats = &AttackStats{}
			r.PerAttack[lv.Label] = stats
		}
		stats.Total++

		if !res.IsAnomaly {
			r.FalseNegatives++
			continue
		}
		r.TruePositives++
		stats.Detected++
		if res.AttackType == lv.Label {
			stats.Classified++
		}
	}
}

// finalize derives the rates from the counters
func (r *Results) finalize() {
	r.Precision = percent(r.TruePositives, r.TruePositives+r.FalsePositives)
	r.Recall = percent(r.TruePositives, r.TruePositives+r.FalseNegatives)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	r.Accuracy = percent(r.TruePositives+r.TrueNegatives, r.TotalVectors)

	classified := 0
	for _, stats := range r.PerAttack {
		stats.Recall = percent(stats.Detected, stats.Total)
		classified += stats.Classified
	}
	r.ClassificationAccuracy = percent(classified, r.TruePositives)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
