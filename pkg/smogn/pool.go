package smogn

import (
	"context"
	"runtime"

	"github.com/grexie/smogn/pkg/dataset"
	"golang.org/x/sync/errgroup"
)

// GroupFunc processes one group and returns the rows it produced. It must only read
// the group and any captured configuration.
type GroupFunc func(ctx context.Context, index int, group *dataset.Frame) ([]dataset.Row, error)

// Pool runs one task per group with at most Workers tasks in flight.
type Pool struct {
	Workers int
}

func defaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

// Map runs fn on every group and concatenates the results in group order.
func (p Pool) Map(ctx context.Context, groups []*dataset.Frame, fn GroupFunc) ([]dataset.Row, error) {
	workers := p.Workers
	if workers < 1 {
		workers = defaultWorkers()
	}

	results := make([][]dataset.Row, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, group := range groups {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := fn(gctx, i, group)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := 0
	for _, rows := range results {
		n += len(rows)
	}
	out := make([]dataset.Row, 0, n)
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}
