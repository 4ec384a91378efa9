package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MapLimit applies fn to every item with at most limit calls in flight and
// returns the results in the order of items, regardless of completion order.
// fn cannot fail; callers that need errors carry them inside Out.
//
// Example:
//
//	results := MapLimit(ctx, 4, paths, func(ctx context.Context, path string) domain.DecodeResult {
//	    return registry.Dispatch(ctx, path)
//	})
func MapLimit[In, Out any](ctx context.Context, limit int, items []In, fn func(context.Context, In) Out) []Out {
	results := make([]Out, len(items))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))

	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}

	_ = g.Wait()

	return results
}
