// Package concurrent provides bounded-concurrency fan-out helpers
// shared by the cache prewarmer and the CLI, adapted from the
// teacher's per-row concurrent-dump pattern.
package concurrent

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ordered carries an output alongside its original position so results
// can be restored to input order after an unordered fan-in.
type ordered[T any] struct {
	index int
	value T
}

// MapWithErrors runs f over every input with at most concurrency
// goroutines in flight (0 disables concurrency, negative means
// unlimited). Unlike a fail-fast errgroup, every input runs regardless
// of another input's failure: per-item errors are collected alongside
// their successes rather than aborting the batch, because one bad
// expression must not block the others in a prewarm run. The returned
// error slice is index-aligned with inputs (nil where f succeeded), so
// callers can recover which input produced which error.
func MapWithErrors[In any, Out any](inputs []In, concurrency int, f func(In) (Out, error)) ([]Out, []error) {
	eg := errgroup.Group{}
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	outputs := make([]ordered[Out], len(inputs))
	errs := make([]ordered[error], len(inputs))

	for i := range inputs {
		i := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			outputs[i] = ordered[Out]{index: i, value: out}
			errs[i] = ordered[error]{index: i, value: err}
			return nil
		})
	}
	_ = eg.Wait()

	slices.SortFunc(outputs, func(a, b ordered[Out]) int { return cmp.Compare(a.index, b.index) })
	slices.SortFunc(errs, func(a, b ordered[error]) int { return cmp.Compare(a.index, b.index) })

	results := make([]Out, len(outputs))
	failures := make([]error, len(errs))
	for i, o := range outputs {
		results[i] = o.value
		failures[i] = errs[i].value
	}
	return results, failures
}
