package smogn

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

var ErrInvalidParams = errors.New("invalid params")

// Params is the configuration of a resampling run. It is built once and passed by
// value to every group task.
type Params struct {
	LabelCol         string
	SamplingStrategy string
	KPartitions      int

	// relevance settings for BumpIdentifier implementations that derive bumps from a
	// relevance function. RangeBumps reads its ranges from yaml and ignores them.
	Threshold     float64
	Method        string
	XtrmType      string
	Coef          float64
	CtrlPtsRegion [][]float64

	// clustering
	InitSteps int
	Tol       float64
	MaxIter   int

	KNeighbours  int
	Perturbation float64

	Seed    uint64
	Workers int
}

func (p Params) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
	}

	switch {
	case p.LabelCol == "":
		return invalid("label_col is required")
	case !slices.Contains([]string{"balance"}, p.SamplingStrategy):
		return invalid("unknown sampling_strategy %q", p.SamplingStrategy)
	case p.KPartitions < 1:
		return invalid("k_partitions must be at least 1, got %d", p.KPartitions)
	case p.Threshold < 0 || p.Threshold > 1:
		return invalid("threshold must be in [0, 1], got %v", p.Threshold)
	case !slices.Contains([]string{"auto", "manual"}, p.Method):
		return invalid("unknown method %q", p.Method)
	case !slices.Contains([]string{"both", "high", "low"}, p.XtrmType):
		return invalid("unknown xtrm_type %q", p.XtrmType)
	case p.Coef <= 0:
		return invalid("coef must be positive, got %v", p.Coef)
	case p.Method == "manual" && len(p.CtrlPtsRegion) == 0:
		return invalid("ctrl_pts_region is required when method is manual")
	case p.InitSteps < 0:
		return invalid("init_steps must not be negative, got %d", p.InitSteps)
	case p.Tol < 0 || math.IsNaN(p.Tol):
		return invalid("tol must not be negative, got %v", p.Tol)
	case p.MaxIter < 0:
		return invalid("max_iter must not be negative, got %d", p.MaxIter)
	case p.KNeighbours < 1:
		return invalid("k_neighbours must be at least 1, got %d", p.KNeighbours)
	case p.Perturbation < 0 || math.IsNaN(p.Perturbation):
		return invalid("perturbation must not be negative, got %v", p.Perturbation)
	case p.Workers < 0:
		return invalid("workers must not be negative, got %d", p.Workers)
	}

	for i, point := range p.CtrlPtsRegion {
		if len(point) != 3 {
			return invalid("ctrl_pts_region[%d] must hold 3 values, got %d", i, len(point))
		}
	}
	return nil
}

func (p Params) Write(w io.Writer, title string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"SMOGN_LABEL_COL", p.LabelCol},
		{"SMOGN_SAMPLING_STRATEGY", p.SamplingStrategy},
		{"SMOGN_K_PARTITIONS", fmt.Sprintf("%d", p.KPartitions)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"SMOGN_THRESHOLD", fmt.Sprintf("%0.02f", p.Threshold)},
		{"SMOGN_METHOD", p.Method},
		{"SMOGN_XTRM_TYPE", p.XtrmType},
		{"SMOGN_COEF", fmt.Sprintf("%0.02f", p.Coef)},
		{"SMOGN_CTRL_PTS_REGION", fmt.Sprintf("%v", p.CtrlPtsRegion)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"SMOGN_INIT_STEPS", fmt.Sprintf("%d", p.InitSteps)},
		{"SMOGN_TOL", fmt.Sprintf("%g", p.Tol)},
		{"SMOGN_MAX_ITER", fmt.Sprintf("%d", p.MaxIter)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"SMOGN_K_NEIGHBOURS", fmt.Sprintf("%d", p.KNeighbours)},
		{"SMOGN_PERTURBATION", fmt.Sprintf("%0.04f", p.Perturbation)},
		{"SMOGN_SEED", fmt.Sprintf("%d", p.Seed)},
		{"SMOGN_WORKERS", fmt.Sprintf("%d", p.workers())},
	})
	t.Render()
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return defaultWorkers()
}

func NewParamsFromDefaults() Params {
	return Params{
		LabelCol:         LabelCol(),
		SamplingStrategy: SamplingStrategy(),
		KPartitions:      KPartitions(),

		Threshold: Threshold(),
		Method:    Method(),
		XtrmType:  XtrmType(),
		Coef:      Coef(),

		InitSteps: InitSteps(),
		Tol:       Tol(),
		MaxIter:   MaxIter(),

		KNeighbours:  KNeighbours(),
		Perturbation: Perturbation(),

		Seed:    uint64(Seed()),
		Workers: Workers(),
	}
}

func envInt(name string, def func() int, dec func(v int) int) func() int {
	return func() int {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseInt(v, 10, 64); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = int(v)
			}
		}
		return dec(value)
	}
}

func envFloat64(name string, def func() float64, dec func(v float64) float64) func() float64 {
	return func() float64 {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseFloat(v, 64); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = v
			}
		}
		return dec(value)
	}
}

func envString(name string, def func() string) func() string {
	return func() string {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			value = v
		}
		return value
	}
}

func identity[T any](v T) T { return v }

var (
	LabelCol         = envString("SMOGN_LABEL_COL", func() string { return "" })
	SamplingStrategy = envString("SMOGN_SAMPLING_STRATEGY", func() string { return "balance" })
	KPartitions      = envInt("SMOGN_K_PARTITIONS", func() int { return 2 }, func(v int) int { return max(1, v) })
)

var (
	Threshold = envFloat64("SMOGN_THRESHOLD", func() float64 { return 0.8 }, func(v float64) float64 { return math.Max(0, math.Min(1, v)) })
	Method    = envString("SMOGN_METHOD", func() string { return "auto" })
	XtrmType  = envString("SMOGN_XTRM_TYPE", func() string { return "both" })
	Coef      = envFloat64("SMOGN_COEF", func() float64 { return 1.5 }, identity[float64])
)

var (
	InitSteps = envInt("SMOGN_INIT_STEPS", func() int { return 2 }, func(v int) int { return max(0, v) })
	Tol       = envFloat64("SMOGN_TOL", func() float64 { return 1e-4 }, func(v float64) float64 { return math.Max(0, v) })
	MaxIter   = envInt("SMOGN_MAX_ITER", func() int { return 20 }, func(v int) int { return max(0, v) })
)

var (
	KNeighbours  = envInt("SMOGN_K_NEIGHBOURS", func() int { return 5 }, func(v int) int { return max(1, v) })
	Perturbation = envFloat64("SMOGN_PERTURBATION", func() float64 { return 0.02 }, func(v float64) float64 { return math.Max(0, v) })
	Seed         = envInt("SMOGN_SEED", func() int { return 0 }, func(v int) int { return max(0, v) })
	Workers      = envInt("SMOGN_WORKERS", func() int { return 0 }, func(v int) int { return max(0, v) })
)
