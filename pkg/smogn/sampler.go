package smogn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/grexie/smogn/pkg/dataset"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
)

var ErrInvalidBump = errors.New("invalid bump")

type BumpKind int

const (
	BumpKeep BumpKind = iota
	BumpOversample
	BumpUndersample
)

func (k BumpKind) String() string {
	switch k {
	case BumpOversample:
		return "oversample"
	case BumpUndersample:
		return "undersample"
	default:
		return "keep"
	}
}

// Bump is a region of the target distribution together with how it is to be sampled.
// For oversampling SamplingPercentage is the number of synthetic rows per row (rounded),
// for undersampling it is the fraction of rows retained.
type Bump struct {
	ID                 int
	Kind               BumpKind
	Min, Max           float64
	Frame              *dataset.Frame
	SamplingPercentage float64
}

type Sampler struct {
	Params Params

	Partitioner      Partitioner
	UnderPartitioner Partitioner
	Pool             Pool
	Progress         progress.Writer
}

func NewSampler(params Params) (*Sampler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{
		Params:           params,
		Partitioner:      NewKMeansPartitioner(params),
		UnderPartitioner: ChunkPartitioner{},
		Pool:             Pool{Workers: params.Workers},
	}, nil
}

// Oversample returns the synthetic rows for bump: round(SamplingPercentage) rows for
// every row of the bump. Rows are clustered into KPartitions groups and each group is
// synthesized independently.
func (s *Sampler) Oversample(ctx context.Context, bump Bump) (*dataset.Frame, error) {
	if err := s.checkBump(bump); err != nil {
		return nil, err
	}
	if bump.SamplingPercentage < 0 {
		return nil, fmt.Errorf("%w: oversampling percentage %v is negative", ErrInvalidBump, bump.SamplingPercentage)
	}

	out := dataset.NewFrame(bump.Frame.Schema)
	n := int(math.Round(bump.SamplingPercentage))
	if n == 0 || bump.Frame.Len() == 0 {
		return out, nil
	}

	groups, err := s.Partitioner.Partition(bump.Frame, s.Params.KPartitions)
	if err != nil {
		return nil, fmt.Errorf("failed to partition bump %d: %w", bump.ID, err)
	}

	params := s.Params
	tracker := s.track(fmt.Sprintf("Oversampling bump %d", bump.ID), len(groups))
	rows, err := s.Pool.Map(ctx, groups, func(ctx context.Context, index int, group *dataset.Frame) ([]dataset.Row, error) {
		defer tracker.Increment(1)
		rng := newRand(params.Seed, groupStream(bump.ID, index))
		return Synthesize(rng, group, n, params.KNeighbours, params.Perturbation), nil
	})
	if err != nil {
		tracker.MarkAsErrored()
		return nil, err
	}
	tracker.MarkAsDone()

	out.Append(rows...)
	return out, nil
}

// Undersample draws round(SamplingPercentage * len) rows without replacement from each
// group of the bump.
func (s *Sampler) Undersample(ctx context.Context, bump Bump) (*dataset.Frame, error) {
	if err := s.checkBump(bump); err != nil {
		return nil, err
	}
	if bump.SamplingPercentage < 0 || bump.SamplingPercentage > 1 {
		return nil, fmt.Errorf("%w: undersampling fraction %v is outside [0, 1]", ErrInvalidBump, bump.SamplingPercentage)
	}

	out := dataset.NewFrame(bump.Frame.Schema)
	if bump.Frame.Len() == 0 {
		return out, nil
	}

	groups, err := s.UnderPartitioner.Partition(bump.Frame, s.Params.KPartitions)
	if err != nil {
		return nil, fmt.Errorf("failed to partition bump %d: %w", bump.ID, err)
	}

	params := s.Params
	fraction := bump.SamplingPercentage
	tracker := s.track(fmt.Sprintf("Undersampling bump %d", bump.ID), len(groups))
	rows, err := s.Pool.Map(ctx, groups, func(ctx context.Context, index int, group *dataset.Frame) ([]dataset.Row, error) {
		defer tracker.Increment(1)
		rng := newRand(params.Seed, groupStream(bump.ID, index))
		keep := int(math.Round(fraction * float64(group.Len())))
		return group.Subset(rng.Perm(group.Len())[:keep]).Rows, nil
	})
	if err != nil {
		tracker.MarkAsErrored()
		return nil, err
	}
	tracker.MarkAsDone()

	out.Append(rows...)
	return out, nil
}

// BumpResult records how many rows a bump contributed to a resampled dataset.
type BumpResult struct {
	Bump Bump
	In   int
	Out  int
}

// Resample applies every bump and returns the rebalanced dataset. Oversampled bumps keep
// their original rows alongside the synthetic ones.
func (s *Sampler) Resample(ctx context.Context, schema dataset.Schema, bumps []Bump) (*dataset.Frame, []BumpResult, error) {
	frames := []*dataset.Frame{}
	results := make([]BumpResult, 0, len(bumps))
	for _, bump := range bumps {
		out := 0
		switch bump.Kind {
		case BumpOversample:
			synth, err := s.Oversample(ctx, bump)
			if err != nil {
				return nil, nil, err
			}
			frames = append(frames, bump.Frame, synth)
			out = bump.Frame.Len() + synth.Len()
		case BumpUndersample:
			sampled, err := s.Undersample(ctx, bump)
			if err != nil {
				return nil, nil, err
			}
			frames = append(frames, sampled)
			out = sampled.Len()
		default:
			frames = append(frames, bump.Frame)
			out = bump.Frame.Len()
		}
		results = append(results, BumpResult{Bump: bump, In: bump.Frame.Len(), Out: out})
	}
	return dataset.Concat(schema, frames...), results, nil
}

func WriteSummary(w io.Writer, results []BumpResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Resampling Summary")
	t.AppendHeader(table.Row{"BUMP", "KIND", "MIN", "MAX", "PERCENTAGE", "ROWS IN", "ROWS OUT"})
	in, out := 0, 0
	for _, r := range results {
		t.AppendRow(table.Row{
			r.Bump.ID,
			r.Bump.Kind.String(),
			fmt.Sprintf("%0.04f", r.Bump.Min),
			fmt.Sprintf("%0.04f", r.Bump.Max),
			fmt.Sprintf("%0.04f", r.Bump.SamplingPercentage),
			r.In,
			r.Out,
		})
		in += r.In
		out += r.Out
	}
	t.AppendFooter(table.Row{"", "", "", "", "TOTAL", in, out})
	t.Render()
}

func (s *Sampler) checkBump(bump Bump) error {
	if bump.Frame == nil {
		return fmt.Errorf("%w: bump %d has no rows", ErrInvalidBump, bump.ID)
	}
	if bump.Frame.Schema.Label != s.Params.LabelCol {
		return fmt.Errorf("%w: bump label %q, expected %q", dataset.ErrMissingLabel, bump.Frame.Schema.Label, s.Params.LabelCol)
	}
	return bump.Frame.Check()
}

func (s *Sampler) track(message string, total int) *progress.Tracker {
	tracker := &progress.Tracker{
		Message: message,
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	if s.Progress != nil {
		s.Progress.AppendTracker(tracker)
	}
	tracker.Start()
	return tracker
}

func groupStream(bump, group int) uint64 {
	return uint64(bump)<<32 | uint64(uint32(group))
}
