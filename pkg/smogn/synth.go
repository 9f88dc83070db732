package smogn

import (
	"math/rand/v2"

	"github.com/grexie/smogn/pkg/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SMOTE interpolates a new row between base and neighbor. Categorical values are
// taken from either row with equal probability and the label is weighted by the
// inverse distance of the new row to each source row.
//
// Numeric values are base + (neighbor-base)*U with U uniform on [0, 1). The step is
// signed, unlike the usual base + |neighbor-base|*U, so that a value always lies
// between base and neighbor even when neighbor < base.
func SMOTE(rng *rand.Rand, base, neighbor dataset.Row) dataset.Row {
	synth := dataset.Row{
		Categorical: make([]string, len(base.Categorical)),
		Numeric:     make([]float64, len(base.Numeric)),
	}

	for j := range base.Categorical {
		if rng.IntN(2) == 0 {
			synth.Categorical[j] = base.Categorical[j]
		} else {
			synth.Categorical[j] = neighbor.Categorical[j]
		}
	}

	for j := range base.Numeric {
		synth.Numeric[j] = base.Numeric[j] + (neighbor.Numeric[j]-base.Numeric[j])*rng.Float64()
	}

	baseDist := floats.Distance(synth.Numeric, base.Numeric, 2)
	neighborDist := floats.Distance(synth.Numeric, neighbor.Numeric, 2)
	synth.Label = blendLabel(base.Label, neighbor.Label, baseDist, neighborDist)

	return synth
}

func blendLabel(baseLabel, neighborLabel, baseDist, neighborDist float64) float64 {
	if baseDist == neighborDist {
		return (baseLabel + neighborLabel) / 2
	}
	return (neighborDist*baseLabel + baseDist*neighborLabel) / (baseDist + neighborDist)
}

// GaussianNoise perturbs base with zero mean normal noise scaled by the group's
// standard deviations times perturbation. Categorical values are drawn from the
// group's frequency tables with the samplers built by NewGroupStats.
func GaussianNoise(rng *rand.Rand, base dataset.Row, stats *GroupStats, perturbation float64) dataset.Row {
	synth := dataset.Row{
		Categorical: make([]string, len(base.Categorical)),
		Numeric:     make([]float64, len(base.Numeric)),
	}

	for j, table := range stats.Categories {
		synth.Categorical[j] = table.Values[int(stats.samplers[j].Rand())]
	}

	for j, v := range base.Numeric {
		synth.Numeric[j] = v + noise(rng, stats.NumericStd[j]*perturbation)
	}

	synth.Label = base.Label + noise(rng, stats.LabelStd*perturbation)

	return synth
}

func noise(rng *rand.Rand, sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}.Rand()
}
