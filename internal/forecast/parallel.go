package forecast

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RegionOutcome is the result of one task run by MapRegions
type RegionOutcome[T any] struct {
	Region string
	Value  T
	Err    error
}

// MapRegions runs fn once per region with at most workers tasks in flight.
// Errors and panics are recorded on the failing region only; the other
// regions always run. Outcomes are returned in input order.
func MapRegions[T any](ctx context.Context, regions []string, workers int, fn func(ctx context.Context, region string) (T, error)) []RegionOutcome[T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]RegionOutcome[T], len(regions))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, region := range regions {
		g.Go(func() error {
			out[i].Region = region
			defer func() {
				if r := recover(); r != nil {
					out[i].Err = fmt.Errorf("panic in region %s: %v", region, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Value, out[i].Err = fn(ctx, region)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
