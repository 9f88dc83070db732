package cluster

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobs(rng *rand.Rand, centers [][]float64, n int) [][]float64 {
	out := [][]float64{}
	for _, c := range centers {
		for range n {
			p := make([]float64, len(c))
			for j := range c {
				p[j] = c[j] + rng.NormFloat64()*0.1
			}
			out = append(out, p)
		}
	}
	return out
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	X := blobs(rng, [][]float64{{0, 0}, {10, 10}, {-10, 10}}, 50)

	km := NewKMeans(3, 2, 1e-4, 50, rand.New(rand.NewPCG(3, 4)))
	labels, err := km.Fit(X)
	require.NoError(t, err)
	require.Len(t, labels, len(X))
	assert.True(t, km.Converged)
	assert.Len(t, km.Centroids, 3)

	// every blob maps to a single distinct cluster
	seen := map[int]bool{}
	for b := range 3 {
		label := labels[b*50]
		for i := b * 50; i < (b+1)*50; i++ {
			assert.Equal(t, label, labels[i])
		}
		assert.False(t, seen[label])
		seen[label] = true
	}

	assert.Equal(t, labels, km.Predict(X))
}

func TestKMeansFewerPointsThanClusters(t *testing.T) {
	km := NewKMeans(5, 2, 1e-4, 20, rand.New(rand.NewPCG(1, 1)))
	labels, err := km.Fit([][]float64{{1}, {2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, labels)
	assert.True(t, km.Converged)
}

func TestKMeansIdenticalPoints(t *testing.T) {
	X := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	km := NewKMeans(2, 2, 1e-4, 20, rand.New(rand.NewPCG(5, 6)))
	labels, err := km.Fit(X)
	require.NoError(t, err)
	for _, label := range labels {
		assert.GreaterOrEqual(t, label, 0)
		assert.Less(t, label, 2)
	}
}

func TestKMeansMaxIter(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	X := blobs(rng, [][]float64{{0}, {1}}, 20)
	km := NewKMeans(2, 1, 0, 1, rand.New(rand.NewPCG(9, 10)))
	labels, err := km.Fit(X)
	require.NoError(t, err)
	assert.Len(t, labels, 40)
	assert.Equal(t, 1, km.Iterations)
}

func TestKMeansErrors(t *testing.T) {
	_, err := NewKMeans(0, 2, 1e-4, 20, nil).Fit([][]float64{{1}})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = NewKMeans(2, 2, 1e-4, 20, nil).Fit(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = NewKMeans(1, 2, 1e-4, 20, nil).Fit([][]float64{{1}, {1, 2}})
	assert.ErrorIs(t, err, ErrRagged)
}

func TestKMeansNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		X := [][]float64{{1, 1}, {2, 2}, {v, 3}, {4, 4}, {5, 5}, {6, 6}}
		_, err := NewKMeans(2, 2, 1e-4, 20, rand.New(rand.NewPCG(1, 2))).Fit(X)
		assert.ErrorIs(t, err, ErrNonFinite)
	}
}

func TestKMeansOverflowingDistances(t *testing.T) {
	X := [][]float64{{-1e200}, {-1e200}, {1e200}, {1e200}, {0}}
	km := NewKMeans(2, 2, 1e-4, 20, rand.New(rand.NewPCG(1, 2)))
	labels, err := km.Fit(X)
	require.NoError(t, err)
	for _, label := range labels {
		assert.GreaterOrEqual(t, label, 0)
		assert.Less(t, label, 2)
	}
}
