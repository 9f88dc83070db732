package smogn

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FindNeighbors computes the pairwise euclidean distances between vectors and, for
// every row, the indices of its k nearest other rows ordered by distance. A row is
// never its own neighbour, so a row gets min(k, n-1) neighbours. Ties are broken by
// index.
func FindNeighbors(vectors [][]float64, k int) (*mat.SymDense, [][]int) {
	n := len(vectors)
	if n == 0 {
		return nil, nil
	}

	dists := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dists.SetSym(i, j, floats.Distance(vectors[i], vectors[j], 2))
		}
	}

	k = max(0, min(k, n-1))
	neighbors := make([][]int, n)
	for i := range n {
		others := make([]int, 0, n-1)
		for j := range n {
			if j != i {
				others = append(others, j)
			}
		}
		slices.SortStableFunc(others, func(a, b int) int {
			da, db := dists.At(i, a), dists.At(i, b)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			}
			return 0
		})
		neighbors[i] = others[:k:k]
	}

	return dists, neighbors
}

// safeDistance is half the distance from row i to its median ranked neighbour.
func safeDistance(dists *mat.SymDense, i int, neighbors []int) float64 {
	if len(neighbors) == 0 {
		return 0
	}
	median := min((len(neighbors)+1)/2, len(neighbors)) - 1
	return dists.At(i, neighbors[median]) / 2
}
