package smogn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	require.NoError(t, testParams().Validate())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"missing label", func(p *Params) { p.LabelCol = "" }},
		{"unknown strategy", func(p *Params) { p.SamplingStrategy = "random" }},
		{"no partitions", func(p *Params) { p.KPartitions = 0 }},
		{"threshold above one", func(p *Params) { p.Threshold = 1.2 }},
		{"unknown method", func(p *Params) { p.Method = "other" }},
		{"manual without control points", func(p *Params) { p.Method = "manual" }},
		{"bad control point", func(p *Params) { p.CtrlPtsRegion = [][]float64{{1, 2}} }},
		{"unknown xtrm type", func(p *Params) { p.XtrmType = "middle" }},
		{"zero coef", func(p *Params) { p.Coef = 0 }},
		{"negative init steps", func(p *Params) { p.InitSteps = -1 }},
		{"negative tol", func(p *Params) { p.Tol = -1 }},
		{"negative max iter", func(p *Params) { p.MaxIter = -1 }},
		{"no neighbours", func(p *Params) { p.KNeighbours = 0 }},
		{"negative perturbation", func(p *Params) { p.Perturbation = -0.1 }},
		{"negative workers", func(p *Params) { p.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
}

func TestNewParamsFromDefaults(t *testing.T) {
	p := NewParamsFromDefaults()
	assert.Equal(t, "balance", p.SamplingStrategy)
	assert.Equal(t, 2, p.KPartitions)
	assert.Equal(t, 0.8, p.Threshold)
	assert.Equal(t, "auto", p.Method)
	assert.Equal(t, "both", p.XtrmType)
	assert.Equal(t, 1.5, p.Coef)
	assert.Equal(t, 2, p.InitSteps)
	assert.Equal(t, 1e-4, p.Tol)
	assert.Equal(t, 20, p.MaxIter)
	assert.Equal(t, 5, p.KNeighbours)
	assert.Equal(t, 0.02, p.Perturbation)
}

func TestNewParamsFromEnv(t *testing.T) {
	t.Setenv("SMOGN_LABEL_COL", "price")
	t.Setenv("SMOGN_K_PARTITIONS", "8")
	t.Setenv("SMOGN_K_NEIGHBOURS", "0")
	t.Setenv("SMOGN_PERTURBATION", "0.1")
	t.Setenv("SMOGN_THRESHOLD", "3")
	t.Setenv("SMOGN_SEED", "99")

	p := NewParamsFromDefaults()
	assert.Equal(t, "price", p.LabelCol)
	assert.Equal(t, 8, p.KPartitions)
	assert.Equal(t, 1, p.KNeighbours)
	assert.Equal(t, 0.1, p.Perturbation)
	assert.Equal(t, 1.0, p.Threshold)
	assert.Equal(t, uint64(99), p.Seed)
	assert.NoError(t, p.Validate())
}

func TestParamsWrite(t *testing.T) {
	var buf bytes.Buffer
	testParams().Write(&buf, "Params")
	assert.Contains(t, buf.String(), "SMOGN_K_NEIGHBOURS")
	assert.Contains(t, buf.String(), "0.0200")
}
