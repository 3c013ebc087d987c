// Package foundation provides generic utilities for composing task results.
package foundation

// Result is the outcome of one unit of work: either a value T or an error E.
type Result[T any, E error] struct {
	value T
	err   E
	isOk  bool
}

// Ok creates a successful Result with the given value.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, isOk: true}
}

// Err creates a failed Result with the given error.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// FromTuple creates a Result from the (value, error) pattern. A non-nil
// error wins over the value.
func FromTuple[T any, E error](value T, err E) Result[T, E] {
	if any(err) != nil {
		return Err[T, E](err)
	}
	return Ok[T, E](value)
}

// IsOk returns true if the Result represents a successful operation.
func (r Result[T, E]) IsOk() bool { return r.isOk }

// IsErr returns true if the Result represents a failed operation.
func (r Result[T, E]) IsErr() bool { return !r.isOk }

// Value returns the value and whether the Result is Ok.
func (r Result[T, E]) Value() (T, bool) { return r.value, r.isOk }

// Error returns the error of a failed Result; the zero E when Ok.
func (r Result[T, E]) Error() E { return r.err }

// Partition splits results, in input order, into the values of the
// successes and the errors of the failures.
func Partition[T any, E error](results []Result[T, E]) ([]T, []E) {
	var values []T
	var errs []E
	for _, r := range results {
		if r.isOk {
			values = append(values, r.value)
			continue
		}
		errs = append(errs, r.err)
	}
	return values, errs
}

// Collect returns Ok with every value when all results succeed, otherwise
// the first failure in input order.
func Collect[T any, E error](results []Result[T, E]) Result[[]T, E] {
	values, errs := Partition(results)
	if len(errs) > 0 {
		return Err[[]T, E](errs[0])
	}
	if values == nil {
		values = []T{}
	}
	return Ok[[]T, E](values)
}
