package detection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	// ClusterCount is the number of outlier groups, one per known attack
	ClusterCount = 3
	// DefaultMaxIterations caps Lloyd iterations
	DefaultMaxIterations = 100
)

// KMeans groups points with Lloyd's algorithm and k-means++ seeding.
// A KMeans value is not safe for concurrent use; build one per pass.
type KMeans struct {
	k             int
	maxIterations int
	rng           *rand.Rand
	centroids     [][]float64
}

// NewKMeans creates a clusterer whose seeding is reproducible for a given seed
func NewKMeans(k, maxIterations int, seed uint64) *KMeans {
	if k <= 0 {
		k = ClusterCount
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &KMeans{
		k:             k,
		maxIterations: maxIterations,
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Fit returns a cluster index in [0,k) for every point
func (km *KMeans) Fit(points [][]float64) ([]int, error) {
	if len(points) < km.k {
		return nil, fmt.Errorf("%w: %d points, k=%d", ErrTooFewPoints, len(points), km.k)
	}

	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has %d components, want %d", ErrDimensionMismatch, i, len(p), dim)
		}
	}

	centroids := km.seedCentroids(points)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < km.maxIterations; iter++ {
		changed := false
		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if labels[i] != nearest {
				labels[i] = nearest
				changed = true
			}
		}
		// centroids only move when another assignment pass follows
		if !changed || iter == km.maxIterations-1 {
			break
		}

		sums := make([][]float64, km.k)
		counts := make([]int, km.k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centroids {
			// an empty cluster keeps its previous centroid
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	km.centroids = centroids
	return labels, nil
}

// Centroids returns the centroids from the last Fit
func (km *KMeans) Centroids() [][]float64 {
	return km.centroids
}

// seedCentroids picks initial centroids k-means++ style: each new centroid is
// drawn with probability proportional to its squared distance from the nearest
// centroid chosen so far.
func (km *KMeans) seedCentroids(points [][]float64) [][]float64 {
	centroids := make([][]float64, 0, km.k)
	first := points[km.rng.IntN(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	weights := make([]float64, len(points))
	for len(centroids) < km.k {
		total := 0.0
		for i, p := range points {
			d := floats.Distance(p, centroids[nearestCentroid(p, centroids)], 2)
			weights[i] = d * d
			total += weights[i]
		}

		next := km.rng.IntN(len(points))
		if total > 0 {
			target := km.rng.Float64() * total
			for i, w := range weights {
				if w == 0 {
					continue
				}
				next = i
				target -= w
				if target <= 0 {
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), points[next]...))
	}

	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
