// Package cluster assigns feature vectors to k centroid-based clusters.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidK  = errors.New("k must be at least 1")
	ErrNoData    = errors.New("input data cannot be empty")
	ErrRagged    = errors.New("feature vectors differ in length")
	ErrNonFinite = errors.New("feature vectors must be finite")
)

// KMeans partitions vectors into K clusters. Seeds are chosen with InitSteps rounds of
// k-means|| oversampling followed by a weighted k-means++ reduction; Lloyd iterations
// stop once no centroid moves more than Tolerance or after MaxIter rounds.
type KMeans struct {
	K         int
	InitSteps int
	Tolerance float64
	MaxIter   int
	Rand      *rand.Rand

	Centroids  [][]float64
	Iterations int
	Converged  bool
	Inertia    float64 // Sum of squared distances to nearest centroid
}

func NewKMeans(k, initSteps int, tolerance float64, maxIter int, rng *rand.Rand) *KMeans {
	return &KMeans{
		K:         k,
		InitSteps: initSteps,
		Tolerance: tolerance,
		MaxIter:   maxIter,
		Rand:      rng,
	}
}

// Fit clusters X and returns the cluster label of every vector.
func (m *KMeans) Fit(X [][]float64) ([]int, error) {
	if m.K < 1 {
		return nil, ErrInvalidK
	}
	if len(X) == 0 {
		return nil, ErrNoData
	}
	for i, x := range X {
		if len(x) != len(X[0]) {
			return nil, ErrRagged
		}
		for j, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: vector %d feature %d is %v", ErrNonFinite, i, j, v)
			}
		}
	}
	if m.Rand == nil {
		m.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := len(X)
	labels := make([]int, n)

	// fewer points than clusters: every point is its own cluster
	if n <= m.K {
		m.Centroids = make([][]float64, n)
		for i, x := range X {
			labels[i] = i
			m.Centroids[i] = append([]float64{}, x...)
		}
		m.Converged, m.Iterations, m.Inertia = true, 0, 0
		return labels, nil
	}

	m.Centroids = m.initCenters(X)
	m.Converged = false

	for m.Iterations = 0; m.Iterations < m.MaxIter; {
		m.Iterations++
		m.Inertia = 0
		for i, x := range X {
			best, d2 := nearest(x, m.Centroids)
			labels[i] = best
			m.Inertia += d2
		}

		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := range sums {
			sums[k] = make([]float64, len(X[0]))
		}
		for i, x := range X {
			floats.Add(sums[labels[i]], x)
			counts[labels[i]]++
		}

		moved := 0.0
		for k := range m.Centroids {
			if counts[k] == 0 {
				continue // empty clusters keep their centroid
			}
			floats.Scale(1/float64(counts[k]), sums[k])
			moved = math.Max(moved, floats.Distance(sums[k], m.Centroids[k], 2))
			m.Centroids[k] = sums[k]
		}

		if moved <= m.Tolerance {
			m.Converged = true
			break
		}
	}

	return m.Predict(X), nil
}

// Predict assigns each vector to its nearest centroid.
func (m *KMeans) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i], _ = nearest(x, m.Centroids)
	}
	return out
}

func (m *KMeans) initCenters(X [][]float64) [][]float64 {
	n := len(X)
	chosen := map[int]bool{}
	candidates := []int{m.Rand.IntN(n)}
	chosen[candidates[0]] = true

	costs := make([]float64, n)
	for i, x := range X {
		costs[i] = squaredDistance(x, X[candidates[0]])
	}

	// oversampling rounds, each drawing about 2K new candidates
	oversampling := 2 * float64(m.K)
	for step := 0; step < m.InitSteps; step++ {
		total := floats.Sum(costs)
		if total == 0 {
			break
		}
		added := []int{}
		for i := range X {
			if !chosen[i] && m.Rand.Float64() < oversampling*costs[i]/total {
				chosen[i] = true
				added = append(added, i)
			}
		}
		for i, x := range X {
			for _, c := range added {
				costs[i] = math.Min(costs[i], squaredDistance(x, X[c]))
			}
		}
		candidates = append(candidates, added...)
	}

	for _, i := range m.Rand.Perm(n) {
		if len(candidates) >= m.K {
			break
		}
		if !chosen[i] {
			chosen[i] = true
			candidates = append(candidates, i)
		}
	}

	points := make([][]float64, len(candidates))
	for i, c := range candidates {
		points[i] = X[c]
	}

	// weight each candidate by the number of points closest to it
	weights := make([]float64, len(candidates))
	for _, x := range X {
		best, _ := nearest(x, points)
		weights[best]++
	}

	return m.weightedPlusPlus(points, weights)
}

func (m *KMeans) weightedPlusPlus(points [][]float64, weights []float64) [][]float64 {
	centers := make([][]float64, 0, m.K)
	used := make([]bool, len(points))

	pick := func(scores []float64) int {
		total := 0.0
		for i, s := range scores {
			if !used[i] {
				total += s
			}
		}
		if total > 0 {
			r := m.Rand.Float64() * total
			cumulative := 0.0
			for i, s := range scores {
				if used[i] {
					continue
				}
				cumulative += s
				if cumulative >= r {
					return i
				}
			}
		}
		for _, i := range m.Rand.Perm(len(points)) {
			if !used[i] {
				return i
			}
		}
		return -1
	}

	first := pick(weights)
	used[first] = true
	centers = append(centers, append([]float64{}, points[first]...))

	scores := make([]float64, len(points))
	for len(centers) < m.K {
		for i, p := range points {
			_, d2 := nearest(p, centers)
			scores[i] = weights[i] * d2
		}
		next := pick(scores)
		used[next] = true
		centers = append(centers, append([]float64{}, points[next]...))
	}

	return centers
}

// nearest returns the index of the closest centroid, the first one on ties. Distances
// that overflow to +Inf still resolve to a valid index.
func nearest(x []float64, centroids [][]float64) (int, float64) {
	best, bestd2 := 0, squaredDistance(x, centroids[0])
	for k := 1; k < len(centroids); k++ {
		if d2 := squaredDistance(x, centroids[k]); d2 < bestd2 {
			best, bestd2 = k, d2
		}
	}
	return best, bestd2
}

func squaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
