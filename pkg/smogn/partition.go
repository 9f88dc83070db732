package smogn

import (
	"log"
	"math/rand/v2"

	"github.com/grexie/smogn/pkg/cluster"
	"github.com/grexie/smogn/pkg/dataset"
)

// Partitioner splits a frame into k groups. Every row lands in exactly one group and
// groups may be empty.
type Partitioner interface {
	Partition(frame *dataset.Frame, k int) ([]*dataset.Frame, error)
}

// KMeansPartitioner groups rows by k-means cluster over their numeric features, so
// that rows sharing a group are close in feature space.
type KMeansPartitioner struct {
	InitSteps int
	Tol       float64
	MaxIter   int
	Seed      uint64
}

func NewKMeansPartitioner(params Params) KMeansPartitioner {
	return KMeansPartitioner{
		InitSteps: params.InitSteps,
		Tol:       params.Tol,
		MaxIter:   params.MaxIter,
		Seed:      params.Seed,
	}
}

func (p KMeansPartitioner) Partition(frame *dataset.Frame, k int) ([]*dataset.Frame, error) {
	groups := emptyGroups(frame.Schema, k)
	if frame.Len() == 0 {
		return groups, nil
	}

	km := cluster.NewKMeans(k, p.InitSteps, p.Tol, p.MaxIter, newRand(p.Seed, uint64(frame.Len())))
	labels, err := km.Fit(frame.FeatureVectors())
	if err != nil {
		return nil, err
	}
	if !km.Converged {
		log.Printf("k-means did not converge after %d iterations, using current assignment", km.Iterations)
	}

	for i, label := range labels {
		groups[label].Append(frame.Rows[i])
	}
	return groups, nil
}

// ChunkPartitioner splits rows into k contiguous chunks of near equal size.
type ChunkPartitioner struct{}

func (ChunkPartitioner) Partition(frame *dataset.Frame, k int) ([]*dataset.Frame, error) {
	groups := emptyGroups(frame.Schema, k)
	n, k := frame.Len(), len(groups)
	for g := range groups {
		start, end := g*n/k, (g+1)*n/k
		groups[g].Append(frame.Rows[start:end]...)
	}
	return groups, nil
}

func emptyGroups(schema dataset.Schema, k int) []*dataset.Frame {
	groups := make([]*dataset.Frame, max(1, k))
	for g := range groups {
		groups[g] = dataset.NewFrame(schema)
	}
	return groups
}

// newRand seeds a PCG source from seed and stream. A zero seed draws a random one.
func newRand(seed, stream uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, stream))
}
