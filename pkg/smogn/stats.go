package smogn

import (
	"math/rand/v2"
	"slices"

	"github.com/grexie/smogn/pkg/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CategoryTable is the empirical distribution of one categorical column.
type CategoryTable struct {
	Values  []string
	Weights []float64
}

func newCategoryTable(values []string) CategoryTable {
	counts := map[string]float64{}
	for _, v := range values {
		counts[v]++
	}

	table := CategoryTable{Values: make([]string, 0, len(counts))}
	for v := range counts {
		table.Values = append(table.Values, v)
	}
	slices.Sort(table.Values)

	table.Weights = make([]float64, len(table.Values))
	for i, v := range table.Values {
		table.Weights[i] = counts[v] / float64(len(values))
	}
	return table
}

// GroupStats holds everything synthesis needs about a group, computed once before any
// sample is drawn and only read afterwards.
type GroupStats struct {
	Distances  *mat.SymDense
	Neighbors  [][]int
	Categories []CategoryTable
	NumericStd []float64
	LabelStd   float64

	samplers []distuv.Categorical
}

// NewGroupStats precomputes the neighbourhoods, deviations and categorical samplers of
// group. The samplers draw from src.
func NewGroupStats(group *dataset.Frame, k int, src rand.Source) *GroupStats {
	s := &GroupStats{}
	s.Distances, s.Neighbors = FindNeighbors(group.FeatureVectors(), k)

	s.Categories = make([]CategoryTable, len(group.Schema.Categorical))
	for j := range group.Schema.Categorical {
		s.Categories[j] = newCategoryTable(group.CategoricalColumn(j))
	}

	s.NumericStd = make([]float64, len(group.Schema.Numeric))
	for j := range group.Schema.Numeric {
		s.NumericStd[j] = sampleStdDev(group.NumericColumn(j))
	}
	s.LabelStd = sampleStdDev(group.Labels())

	s.initSamplers(src)
	return s
}

func (s *GroupStats) initSamplers(src rand.Source) {
	s.samplers = make([]distuv.Categorical, len(s.Categories))
	for j, table := range s.Categories {
		s.samplers[j] = distuv.NewCategorical(table.Weights, src)
	}
}

// sampleStdDev uses the n-1 denominator and is zero when fewer than two values exist.
func sampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}
