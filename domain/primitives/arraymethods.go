package primitives

import (
	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// ResumableMap implements atp.map: calls fn(value, index) for every element
// and collects the results in order. A pause from any element propagates
// immediately; already-resolved elements before it replay from cache on the
// next attempt (spec §8 property 8: no double execution under replay).
func ResumableMap(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) (*starlark.List, error) {
	values := iterateAll(iterable)
	out := make([]starlark.Value, len(values))
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		result, err := callElement(thread, fn, v, i)
		if err != nil {
			return nil, err
		}
		out[i] = result
	}
	return starlark.NewList(out), nil
}

// ResumableFilter implements atp.filter.
func ResumableFilter(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) (*starlark.List, error) {
	values := iterateAll(iterable)
	var out []starlark.Value
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		keep, err := callElement(thread, fn, v, i)
		if err != nil {
			return nil, err
		}
		if keep.Truth() {
			out = append(out, v)
		}
	}
	return starlark.NewList(out), nil
}

// ResumableForEach implements atp.forEach: like ResumableMap but discards the
// callback's return value.
func ResumableForEach(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) error {
	values := iterateAll(iterable)
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return err
		}
		if _, err := callElement(thread, fn, v, i); err != nil {
			return err
		}
	}
	return nil
}

// ResumableFind implements atp.find: returns the first element for which fn
// is truthy, or starlark.None.
func ResumableFind(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) (starlark.Value, error) {
	values := iterateAll(iterable)
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		hit, err := callElement(thread, fn, v, i)
		if err != nil {
			return nil, err
		}
		if hit.Truth() {
			return v, nil
		}
	}
	return starlark.None, nil
}

// ResumableSome implements atp.some: short-circuits true on the first match.
func ResumableSome(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) (bool, error) {
	values := iterateAll(iterable)
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return false, err
		}
		hit, err := callElement(thread, fn, v, i)
		if err != nil {
			return false, err
		}
		if hit.Truth() {
			return true, nil
		}
	}
	return false, nil
}

// ResumableEvery implements atp.every: short-circuits false on the first
// element that fails the predicate.
func ResumableEvery(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) (bool, error) {
	values := iterateAll(iterable)
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return false, err
		}
		ok, err := callElement(thread, fn, v, i)
		if err != nil {
			return false, err
		}
		if !ok.Truth() {
			return false, nil
		}
	}
	return true, nil
}

// ResumableReduce implements atp.reduce. When hasInitial is false the first
// element seeds the accumulator, matching the target language's reduce
// semantics for a missing initial value.
func ResumableReduce(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable, initial starlark.Value, hasInitial bool) (starlark.Value, error) {
	values := iterateAll(iterable)

	acc := initial
	start := 0
	if !hasInitial {
		if len(values) == 0 {
			return nil, apperror.ErrUserError.WithMessage("reduce of empty sequence with no initial value")
		}
		acc = values[0]
		start = 1
	}

	for i := start; i < len(values); i++ {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		result, err := starlark.Call(thread, fn, starlark.Tuple{acc, values[i], starlark.MakeInt(i)}, nil)
		if err != nil {
			return nil, err
		}
		acc = result
	}
	return acc, nil
}

// ResumableFlatMap implements atp.flatMap: like ResumableMap, but each
// callback result that is itself iterable is flattened one level into the
// output instead of nested.
func ResumableFlatMap(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, fn starlark.Callable) (*starlark.List, error) {
	values := iterateAll(iterable)
	var out []starlark.Value
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		result, err := callElement(thread, fn, v, i)
		if err != nil {
			return nil, err
		}
		if nested, ok := result.(starlark.Iterable); ok {
			out = append(out, iterateAll(nested)...)
			continue
		}
		out = append(out, result)
	}
	return starlark.NewList(out), nil
}
