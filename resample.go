package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grexie/smogn/pkg/dataset"
	"github.com/grexie/smogn/pkg/db"
	"github.com/grexie/smogn/pkg/smogn"
	"github.com/grexie/smogn/pkg/store"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"
)

const mongoScheme = "mongodb:"

type resampleOptions struct {
	input  string
	output string
	bumps  string
	cache  string
	ctrl   string
}

func newResampleCommand() *cobra.Command {
	params := smogn.NewParamsFromDefaults()
	opts := resampleOptions{}

	cmd := &cobra.Command{
		Use:   "resample",
		Short: "Oversample rare and undersample common target ranges of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ctrl != "" {
				if points, err := parseCtrlPts(opts.ctrl); err != nil {
					return err
				} else {
					params.CtrlPtsRegion = points
				}
			}
			return runResample(cmd.Context(), params, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input csv path, http(s) url or mongodb:<collection>")
	f.StringVarP(&opts.output, "output", "o", "-", "output csv path, - for stdout, or mongodb:<collection>")
	f.StringVarP(&opts.bumps, "bumps", "b", "", "yaml file of target ranges")
	f.StringVar(&opts.cache, "cache", "", "leveldb directory caching remote datasets")
	f.StringVar(&opts.ctrl, "ctrl-pts-region", "", "relevance control points as x,y,slope;x,y,slope, for relevance based bump identifiers")

	f.StringVar(&params.LabelCol, "label-col", params.LabelCol, "target column")
	f.StringVar(&params.SamplingStrategy, "sampling-strategy", params.SamplingStrategy, "balancing policy for ranges without an explicit kind")
	f.IntVar(&params.KPartitions, "k-partitions", params.KPartitions, "number of clustering groups")
	f.Float64Var(&params.Threshold, "threshold", params.Threshold, "relevance threshold, for relevance based bump identifiers")
	f.StringVar(&params.Method, "method", params.Method, "relevance method (auto, manual), for relevance based bump identifiers")
	f.StringVar(&params.XtrmType, "xtrm-type", params.XtrmType, "extreme values to consider (both, high, low), for relevance based bump identifiers")
	f.Float64Var(&params.Coef, "coef", params.Coef, "box plot coefficient, for relevance based bump identifiers")
	f.IntVar(&params.InitSteps, "init-steps", params.InitSteps, "k-means|| initialization rounds")
	f.Float64Var(&params.Tol, "tol", params.Tol, "k-means convergence tolerance")
	f.IntVar(&params.MaxIter, "max-iter", params.MaxIter, "k-means iteration cap")
	f.IntVar(&params.KNeighbours, "k-neighbours", params.KNeighbours, "nearest neighbours considered per row")
	f.Float64Var(&params.Perturbation, "perturbation", params.Perturbation, "gaussian noise scale")
	f.Uint64Var(&params.Seed, "seed", params.Seed, "random seed, 0 for random")
	f.IntVar(&params.Workers, "workers", params.Workers, "parallel group workers, 0 for cpu count")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("bumps")

	return cmd
}

func runResample(ctx context.Context, params smogn.Params, opts resampleOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sampler, err := smogn.NewSampler(params)
	if err != nil {
		return err
	}
	params.Write(os.Stderr, "SMOGN Params")

	frame, err := loadInput(ctx, opts, params.LabelCol)
	if err != nil {
		return err
	}
	log.Printf("loaded %d rows from %s", frame.Len(), opts.input)

	file, err := os.Open(opts.bumps)
	if err != nil {
		return err
	}
	identifier, err := smogn.LoadRangeBumps(file)
	file.Close()
	if err != nil {
		return err
	}

	bumps, err := identifier.Identify(frame, params)
	if err != nil {
		return err
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(os.Stderr)
	pw.SetMessageLength(40)
	pw.SetNumTrackersExpected(len(bumps))
	pw.SetSortBy(progress.SortByPercentDsc)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerLength(15)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Options.PercentFormat = "%2.0f%%"
	go pw.Render()
	for !pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
	sampler.Progress = pw

	out, results, err := sampler.Resample(ctx, frame.Schema, bumps)

	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return err
	}

	smogn.WriteSummary(os.Stderr, results)

	return writeOutput(ctx, opts.output, out)
}

func loadInput(ctx context.Context, opts resampleOptions, label string) (*dataset.Frame, error) {
	switch {
	case strings.HasPrefix(opts.input, mongoScheme):
		database, err := db.ConnectMongo(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		defer database.Client().Disconnect(ctx)
		return db.LoadFrame(ctx, database, strings.TrimPrefix(opts.input, mongoScheme), label, dataset.TypeClassifier{})

	case strings.HasPrefix(opts.input, "http://") || strings.HasPrefix(opts.input, "https://"):
		if opts.cache == "" {
			return dataset.FetchCSV(ctx, opts.input, label, dataset.TypeClassifier{})
		}

		cache, err := store.Open(opts.cache)
		if err != nil {
			return nil, err
		}
		defer cache.Close()

		if ok, err := cache.Has(opts.input); err != nil {
			return nil, err
		} else if ok {
			return cache.Get(opts.input)
		}

		frame, err := dataset.FetchCSV(ctx, opts.input, label, dataset.TypeClassifier{})
		if err != nil {
			return nil, err
		}
		if err := cache.Put(opts.input, frame); err != nil {
			log.Printf("failed to cache %s: %v", opts.input, err)
		}
		return frame, nil

	default:
		file, err := os.Open(opts.input)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return dataset.ReadCSV(file, label, dataset.TypeClassifier{})
	}
}

func writeOutput(ctx context.Context, output string, frame *dataset.Frame) error {
	switch {
	case strings.HasPrefix(output, mongoScheme):
		database, err := db.ConnectMongo(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		defer database.Client().Disconnect(ctx)
		n, err := db.SaveFrame(ctx, database, strings.TrimPrefix(output, mongoScheme), frame)
		if err != nil {
			return err
		}
		log.Printf("saved %d rows to %s", n, output)
		return nil

	case output == "" || output == "-":
		return dataset.WriteCSV(os.Stdout, frame)

	default:
		file, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := dataset.WriteCSV(file, frame); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
}

// parseCtrlPts parses "x,y,slope;x,y,slope" control points.
func parseCtrlPts(s string) ([][]float64, error) {
	out := [][]float64{}
	for _, point := range strings.Split(s, ";") {
		fields := strings.Split(point, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("control point %q must have 3 values", point)
		}
		values := make([]float64, len(fields))
		for i, field := range fields {
			if v, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
				return nil, fmt.Errorf("failed to parse control point %q: %w", point, err)
			} else {
				values[i] = v
			}
		}
		out = append(out, values)
	}
	return out, nil
}
