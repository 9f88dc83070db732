package smogn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/grexie/smogn/pkg/cluster"
	"github.com/grexie/smogn/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		LabelCol:         "y",
		SamplingStrategy: "balance",
		KPartitions:      3,
		Threshold:        0.8,
		Method:           "auto",
		XtrmType:         "both",
		Coef:             1.5,
		InitSteps:        2,
		Tol:              1e-4,
		MaxIter:          20,
		KNeighbours:      5,
		Perturbation:     0.02,
		Seed:             42,
		Workers:          4,
	}
}

// randomFrame builds rows with a unique label per row so rows can be told apart.
func randomFrame(n int, seed uint64) *dataset.Frame {
	rng := rand.New(rand.NewPCG(seed, seed))
	frame := dataset.NewFrame(testSchema)
	for i := range n {
		frame.Append(dataset.Row{
			Categorical: []string{fmt.Sprintf("c%d", i%3)},
			Numeric:     []float64{rng.NormFloat64() + float64(i%4)*10},
			Label:       float64(i),
		})
	}
	return frame
}

func TestKMeansPartitionerKeepsEveryRow(t *testing.T) {
	frame := randomFrame(200, 1)
	for _, k := range []int{1, 2, 4, 7} {
		groups, err := NewKMeansPartitioner(testParams()).Partition(frame, k)
		require.NoError(t, err)
		require.Len(t, groups, k)

		seen := map[float64]int{}
		total := 0
		for _, group := range groups {
			assert.Equal(t, testSchema, group.Schema)
			total += group.Len()
			for _, row := range group.Rows {
				seen[row.Label]++
			}
		}
		assert.Equal(t, frame.Len(), total)
		assert.Len(t, seen, frame.Len())
		for _, count := range seen {
			assert.Equal(t, 1, count)
		}
	}
}

func TestKMeansPartitionerMoreGroupsThanRows(t *testing.T) {
	groups, err := NewKMeansPartitioner(testParams()).Partition(lineGroup(1, 2), 4)
	require.NoError(t, err)
	require.Len(t, groups, 4)
	sizes := []int{}
	for _, group := range groups {
		sizes = append(sizes, group.Len())
	}
	assert.Equal(t, []int{1, 1, 0, 0}, sizes)
}

func TestChunkPartitioner(t *testing.T) {
	groups, err := ChunkPartitioner{}.Partition(randomFrame(10, 2), 3)
	require.NoError(t, err)
	labels := [][]float64{}
	for _, group := range groups {
		labels = append(labels, group.Labels())
	}
	assert.Equal(t, [][]float64{{0, 1, 2}, {3, 4, 5}, {6, 7, 8, 9}}, labels)
}

func TestOversample(t *testing.T) {
	sampler, err := NewSampler(testParams())
	require.NoError(t, err)

	frame := randomFrame(60, 3)
	out, err := sampler.Oversample(context.Background(), Bump{ID: 1, Kind: BumpOversample, Frame: frame, SamplingPercentage: 2.6})
	require.NoError(t, err)
	assert.Equal(t, 60*3, out.Len())
	assert.True(t, frame.Schema.Equal(out.Schema))
	assert.NoError(t, out.Check())
}

func TestOversampleDeterministicWithSeed(t *testing.T) {
	sampler, err := NewSampler(testParams())
	require.NoError(t, err)

	bump := Bump{Kind: BumpOversample, Frame: randomFrame(40, 4), SamplingPercentage: 2}
	a, err := sampler.Oversample(context.Background(), bump)
	require.NoError(t, err)
	b, err := sampler.Oversample(context.Background(), bump)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOversampleZero(t *testing.T) {
	sampler, err := NewSampler(testParams())
	require.NoError(t, err)

	out, err := sampler.Oversample(context.Background(), Bump{Frame: randomFrame(10, 5), SamplingPercentage: 0.4})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())

	_, err = sampler.Oversample(context.Background(), Bump{Frame: randomFrame(10, 5), SamplingPercentage: -1})
	assert.ErrorIs(t, err, ErrInvalidBump)
}

func TestOversampleRejectsMalformedBump(t *testing.T) {
	sampler, err := NewSampler(testParams())
	require.NoError(t, err)

	_, err = sampler.Oversample(context.Background(), Bump{SamplingPercentage: 1})
	assert.ErrorIs(t, err, ErrInvalidBump)

	frame := dataset.NewFrame(dataset.Schema{Label: "z", Numeric: []string{"x"}})
	_, err = sampler.Oversample(context.Background(), Bump{Frame: frame, SamplingPercentage: 1})
	assert.ErrorIs(t, err, dataset.ErrMissingLabel)

	frame = dataset.NewFrame(testSchema, dataset.Row{Numeric: []float64{1}})
	_, err = sampler.Oversample(context.Background(), Bump{Frame: frame, SamplingPercentage: 1})
	assert.ErrorIs(t, err, dataset.ErrMalformedValue)

	frame = randomFrame(6, 1)
	frame.Rows[2].Numeric[0] = math.NaN()
	_, err = sampler.Oversample(context.Background(), Bump{Frame: frame, SamplingPercentage: 1})
	assert.ErrorIs(t, err, dataset.ErrMalformedValue)
}

func TestKMeansPartitionerRejectsNonFinite(t *testing.T) {
	frame := randomFrame(6, 1)
	frame.Rows[2].Numeric[0] = math.Inf(1)
	_, err := NewKMeansPartitioner(testParams()).Partition(frame, 2)
	assert.ErrorIs(t, err, cluster.ErrNonFinite)
}

func TestUndersample(t *testing.T) {
	sampler, err := NewSampler(testParams())
	require.NoError(t, err)

	frame := randomFrame(120, 6)
	out, err := sampler.Undersample(context.Background(), Bump{ID: 2, Kind: BumpUndersample, Frame: frame, SamplingPercentage: 0.25})
	require.NoError(t, err)
	assert.Equal(t, 30, out.Len())

	original := map[float64]dataset.Row{}
	for _, row := range frame.Rows {
		original[row.Label] = row
	}
	seen := map[float64]bool{}
	for _, row := range out.Rows {
		assert.False(t, seen[row.Label], "row %v drawn twice", row.Label)
		seen[row.Label] = true
		assert.Equal(t, original[row.Label], row)
	}

	_, err = sampler.Undersample(context.Background(), Bump{Frame: frame, SamplingPercentage: 1.5})
	assert.ErrorIs(t, err, ErrInvalidBump)
}

func TestResample(t *testing.T) {
	sampler, err := NewSampler(testParams())
	require.NoError(t, err)

	rare, common, rest := randomFrame(10, 7), randomFrame(120, 8), randomFrame(20, 9)
	out, results, err := sampler.Resample(context.Background(), testSchema, []Bump{
		{ID: 0, Kind: BumpOversample, Frame: rare, SamplingPercentage: 4},
		{ID: 1, Kind: BumpUndersample, Frame: common, SamplingPercentage: 0.5},
		{ID: 2, Kind: BumpKeep, Frame: rest},
	})
	require.NoError(t, err)
	assert.Equal(t, 10+40+60+20, out.Len())
	require.Len(t, results, 3)
	assert.Equal(t, BumpResult{Bump: results[0].Bump, In: 10, Out: 50}, results[0])
	assert.Equal(t, 60, results[1].Out)
	assert.Equal(t, 20, results[2].Out)

	var buf bytes.Buffer
	WriteSummary(&buf, results)
	assert.Contains(t, buf.String(), "oversample")
	assert.Contains(t, buf.String(), "undersample")
	assert.Contains(t, buf.String(), "150")
	assert.Contains(t, buf.String(), "130")
}

func TestPoolMap(t *testing.T) {
	groups := []*dataset.Frame{lineGroup(1, 2), lineGroup(), lineGroup(3), lineGroup(4, 5, 6)}

	var calls atomic.Int32
	rows, err := Pool{Workers: 2}.Map(context.Background(), groups, func(ctx context.Context, index int, group *dataset.Frame) ([]dataset.Row, error) {
		calls.Add(1)
		return group.Rows, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())

	labels := []float64{}
	for _, row := range rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, labels)
}

func TestPoolMapError(t *testing.T) {
	failure := errors.New("boom")
	groups := []*dataset.Frame{lineGroup(1), lineGroup(2), lineGroup(3)}
	_, err := Pool{Workers: 1}.Map(context.Background(), groups, func(ctx context.Context, index int, group *dataset.Frame) ([]dataset.Row, error) {
		if index == 1 {
			return nil, failure
		}
		return group.Rows, nil
	})
	assert.ErrorIs(t, err, failure)
}

func TestPoolMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Pool{}.Map(ctx, []*dataset.Frame{lineGroup(1)}, func(ctx context.Context, index int, group *dataset.Frame) ([]dataset.Row, error) {
		return group.Rows, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
