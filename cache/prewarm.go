package cache

import "github.com/unitsys/resolver/internal/concurrent"

// Prewarm resolves every expression in expressions up front (e.g. at
// process start, from a known hot list), bounded by concurrency
// in-flight goroutines, via MapWithErrors - adapted from the teacher's
// ConcurrentMapFuncWithError, but collecting a per-expression error
// instead of aborting the whole batch: one bad entry in a prewarm list
// must not block the rest.
func Prewarm[T any](expressions []string, concurrency int, create func(string) (T, error)) map[string]error {
	_, errs := concurrent.MapWithErrors(expressions, concurrency, func(expr string) (T, error) {
		return create(expr)
	})

	failures := make(map[string]error)
	for i, err := range errs {
		if err != nil {
			failures[expressions[i]] = err
		}
	}
	return failures
}
