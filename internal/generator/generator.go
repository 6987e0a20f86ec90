package generator

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/Alias1177/ChainGuard/models"
)

// DefaultAnomalyRate is the share of attack vectors in a labeled batch
const DefaultAnomalyRate = 0.15

// profile is the uniform range [min, min+span) of each feature
type profile [models.FeatureCount][2]float64

var (
	normalProfile = profile{
		{200, 100},
		{8e10, 4e10},
		{1.5e12, 1e12},
		{5e9, 2e9},
		{8, 4},
		{1.0, 0.3},
		{250000, 100000},
	}

	attackProfiles = map[models.AttackType]profile{
		models.AttackDDoS: {
			{500, 200},
			{9e10, 3e10},
			{1.8e12, 8e11},
			{6e9, 2e9},
			{9, 3},
			{1.5, 0.5},
			{400000, 150000},
		},
		models.AttackDoubleSpending: {
			{220, 80},
			{8.5e10, 3.5e10},
			{1.6e12, 9e11},
			{8e9, 3e9},
			{4, 3},
			{1.1, 0.3},
			{280000, 120000},
		},
		models.Attack51Percent: {
			{230, 90},
			{1.5e11, 5e10},
			{3e12, 1.5e12},
			{6.5e9, 2.5e9},
			{9, 4},
			{1.2, 0.4},
			{290000, 130000},
		},
	}

	attackOrder = []models.AttackType{models.AttackDDoS, models.AttackDoubleSpending, models.Attack51Percent}
)

// Generator produces synthetic network snapshots: normal traffic for training
// and labeled mixes of normal and attack traffic for detection.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	anomalyRate float64
}

// New creates a generator; the same seed yields the same sequence
func New(seed uint64, anomalyRate float64) *Generator {
	if anomalyRate < 0 || anomalyRate > 1 {
		anomalyRate = DefaultAnomalyRate
	}
	return &Generator{
		rng:         rand.New(rand.NewPCG(seed, seed+1)),
		anomalyRate: anomalyRate,
	}
}

// Normal draws one vector from the normal traffic profile
func (g *Generator) Normal() models.FeatureVector {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.draw(normalProfile)
}

// Attack draws one vector from the given attack profile. Unknown attacks fall back to normal traffic.
func (g *Generator) Attack(attack models.AttackType) models.FeatureVector {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := attackProfiles[attack]
	if !ok {
		p = normalProfile
	}
	return g.draw(p)
}

// NormalBatch draws n normal vectors
func (g *Generator) NormalBatch(n int) []models.FeatureVector {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.FeatureVector, n)
	for i := range out {
		out[i] = g.draw(normalProfile)
	}
	return out
}

// LabeledBatch draws n vectors, each an attack with probability anomalyRate
func (g *Generator) LabeledBatch(n int) []models.LabeledVector {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.LabeledVector, n)
	for i := range out {
		if g.rng.Float64() < g.anomalyRate {
			attack := attackOrder[g.rng.IntN(len(attackOrder))]
			out[i] = models.LabeledVector{Features: g.draw(attackProfiles[attack]), Label: attack}
			continue
		}
		out[i] = models.LabeledVector{Features: g.draw(normalProfile)}
	}
	return out
}

// ReferenceBatch implements models.FeatureSource
func (g *Generator) ReferenceBatch(ctx context.Context, n int) ([]models.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.NormalBatch(n), nil
}

// LiveBatch implements models.FeatureSource
func (g *Generator) LiveBatch(ctx context.Context, n int) ([]models.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labeled := g.LabeledBatch(n)
	out := make([]models.FeatureVector, len(labeled))
	for i, lv := range labeled {
		out[i] = lv.Features
	}
	return out, nil
}

func (g *Generator) draw(p profile) models.FeatureVector {
	var v [models.FeatureCount]float64
	for i, r := range p {
		v[i] = r[0] + g.rng.Float64()*r[1]
	}
	f, _ := models.FeatureVectorFromValues(v[:])
	return f
}
