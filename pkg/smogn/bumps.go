package smogn

import (
	"fmt"
	"io"
	"math"

	"github.com/grexie/smogn/pkg/dataset"
	"gopkg.in/yaml.v3"
)

// BumpIdentifier splits a dataset into bumps and decides how each is sampled.
type BumpIdentifier interface {
	Identify(frame *dataset.Frame, params Params) ([]Bump, error)
}

// Range is a half open target interval [Min, Max). Kind and SamplingPercentage are
// optional; a range without a kind is sized by the sampling strategy.
type Range struct {
	Min                float64 `yaml:"min"`
	Max                float64 `yaml:"max"`
	Kind               string  `yaml:"kind,omitempty"`
	SamplingPercentage float64 `yaml:"sampling_percentage,omitempty"`
}

// RangeBumps identifies bumps from explicitly configured target ranges. Rows outside
// every range are kept as they are.
type RangeBumps struct {
	Ranges []Range `yaml:"ranges"`
}

func LoadRangeBumps(r io.Reader) (*RangeBumps, error) {
	var bumps RangeBumps
	if err := yaml.NewDecoder(r).Decode(&bumps); err != nil {
		return nil, fmt.Errorf("failed to decode bumps: %w", err)
	}
	for i, r := range bumps.Ranges {
		if !(r.Min < r.Max) {
			return nil, fmt.Errorf("%w: range %d has min %v >= max %v", ErrInvalidBump, i, r.Min, r.Max)
		}
		if _, err := parseBumpKind(r.Kind); err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
		for j, o := range bumps.Ranges[:i] {
			if r.Min < o.Max && o.Min < r.Max {
				return nil, fmt.Errorf("%w: range %d overlaps range %d", ErrInvalidBump, i, j)
			}
		}
	}
	return &bumps, nil
}

func parseBumpKind(kind string) (BumpKind, error) {
	switch kind {
	case "", "keep":
		return BumpKeep, nil
	case "oversample":
		return BumpOversample, nil
	case "undersample":
		return BumpUndersample, nil
	default:
		return BumpKeep, fmt.Errorf("%w: unknown kind %q", ErrInvalidBump, kind)
	}
}

func (b *RangeBumps) Identify(frame *dataset.Frame, params Params) ([]Bump, error) {
	bumps := make([]Bump, 0, len(b.Ranges)+1)
	for i, r := range b.Ranges {
		kind, err := parseBumpKind(r.Kind)
		if err != nil {
			return nil, err
		}
		bumps = append(bumps, Bump{
			ID:                 i,
			Kind:               kind,
			Min:                r.Min,
			Max:                r.Max,
			Frame:              frame.Filter(func(label float64) bool { return label >= r.Min && label < r.Max }),
			SamplingPercentage: r.SamplingPercentage,
		})
	}

	rest := frame.Filter(func(label float64) bool {
		for _, r := range b.Ranges {
			if label >= r.Min && label < r.Max {
				return false
			}
		}
		return true
	})
	if rest.Len() > 0 {
		bumps = append(bumps, Bump{ID: len(b.Ranges), Kind: BumpKeep, Min: math.Inf(-1), Max: math.Inf(1), Frame: rest})
	}

	// ranges without an explicit kind are sized by the sampling strategy
	sized := []int{}
	for i, r := range b.Ranges {
		if r.Kind == "" && bumps[i].Frame.Len() > 0 {
			sized = append(sized, i)
		}
	}
	if len(sized) > 0 {
		switch params.SamplingStrategy {
		case "balance":
			balance(bumps, sized)
		default:
			return nil, fmt.Errorf("%w: unknown sampling_strategy %q", ErrInvalidParams, params.SamplingStrategy)
		}
	}

	return bumps, nil
}

// balance sizes every bump towards the mean bump size: smaller bumps are oversampled
// with mean/n - 1 synthetic rows per row, larger ones keep a mean/n fraction of rows.
func balance(bumps []Bump, indices []int) {
	mean := 0.0
	for _, i := range indices {
		mean += float64(bumps[i].Frame.Len())
	}
	mean /= float64(len(indices))

	for _, i := range indices {
		ratio := mean / float64(bumps[i].Frame.Len())
		switch {
		case ratio > 1:
			bumps[i].Kind = BumpOversample
			bumps[i].SamplingPercentage = ratio - 1
		case ratio < 1:
			bumps[i].Kind = BumpUndersample
			bumps[i].SamplingPercentage = ratio
		default:
			bumps[i].Kind = BumpKeep
		}
	}
}
