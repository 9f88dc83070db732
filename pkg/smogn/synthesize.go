package smogn

import (
	"log"
	"math"
	"math/rand/v2"

	"github.com/grexie/smogn/pkg/dataset"
)

// Synthesize creates n synthetic rows for every row of group. The j-th sample of base
// row i is stored at i*n+j.
//
// For each sample a neighbour is drawn at random from the base row's k nearest
// neighbours. When it lies closer than the base row's safe distance (half the distance
// to its median neighbour) the sample is interpolated with SMOTE, otherwise it is made
// with Gaussian noise scaled by min(safe distance, perturbation).
func Synthesize(rng *rand.Rand, group *dataset.Frame, n, k int, perturbation float64) []dataset.Row {
	if group.Len() == 0 || n <= 0 {
		return nil
	}

	stats := NewGroupStats(group, k, rng)
	out := make([]dataset.Row, group.Len()*n)

	if group.Len() == 1 {
		log.Printf("group of a single row has no neighbours, using gaussian noise for %d samples", n)
	}

	for i, base := range group.Rows {
		neighbors := stats.Neighbors[i]

		if len(neighbors) == 0 {
			for j := range n {
				out[i*n+j] = GaussianNoise(rng, base, stats, perturbation)
			}
			continue
		}

		safe := safeDistance(stats.Distances, i, neighbors)

		for j := range n {
			neighbor := neighbors[rng.IntN(len(neighbors))]

			if stats.Distances.At(i, neighbor) < safe {
				out[i*n+j] = SMOTE(rng, base, group.Rows[neighbor])
			} else {
				out[i*n+j] = GaussianNoise(rng, base, stats, math.Min(safe, perturbation))
			}
		}
	}

	return out
}
