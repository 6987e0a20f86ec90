package detection

import "github.com/Alias1177/ChainGuard/models"

// AttackScore is the number of signature rules a vector satisfies for one attack
type AttackScore struct {
	Attack models.AttackType
	Score  int
}

type signature struct {
	attack models.AttackType
	rules  []func(models.FeatureVector) bool
}

// signatures are evaluated in this order; the first maximum wins ties
var signatures = []signature{
	{
		attack: models.AttackDDoS,
		rules: []func(models.FeatureVector) bool{
			func(f models.FeatureVector) bool { return f.BlockchainSize > 500 },
			func(f models.FeatureVector) bool { return f.UniqueTransactions > 400000 },
			func(f models.FeatureVector) bool { return f.AvgBlockSize > 1.5 },
		},
	},
	{
		attack: models.AttackDoubleSpending,
		rules: []func(models.FeatureVector) bool{
			func(f models.FeatureVector) bool { return f.TransactionVolume > 8e9 },
			func(f models.FeatureVector) bool { return f.MedianConfirmationTime < 8 },
		},
	},
	{
		attack: models.Attack51Percent,
		rules: []func(models.FeatureVector) bool{
			func(f models.FeatureVector) bool { return f.HashRate > 1.5e11 },
			func(f models.FeatureVector) bool { return f.Difficulty > 3e12 },
		},
	},
}

// Score evaluates every attack signature against raw features
func Score(f models.FeatureVector) []AttackScore {
	scores := make([]AttackScore, 0, len(signatures))
	for _, sig := range signatures {
		score := 0
		for _, rule := range sig.rules {
			if rule(f) {
				score++
			}
		}
		scores = append(scores, AttackScore{Attack: sig.attack, Score: score})
	}
	return scores
}

// Classify returns the attack with the highest signature score.
// It returns Unknown when no rule matches.
func Classify(f models.FeatureVector) models.AttackType {
	best := AttackScore{Attack: models.AttackUnknown}
	for _, s := range Score(f) {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Attack
}
