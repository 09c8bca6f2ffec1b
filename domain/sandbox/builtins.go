package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/primitives"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/transform"
)

func unpackIterableFn(name string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Iterable, starlark.Callable, error) {
	var iterable starlark.Iterable
	var fn starlark.Callable
	if err := starlark.UnpackArgs(name, args, kwargs, "iterable", &iterable, "fn", &fn); err != nil {
		return nil, nil, err
	}
	return iterable, fn, nil
}

// builtinMap is the one array method the batch analyzer can upgrade to
// batch-parallel dispatch (spec §4.H step 3): its per-element callback
// results are already the shape a fused pause resolves into. filter, forEach
// and flatMap always dispatch sequentially even when classified
// batch-eligible — forEach has no result to collect, and filter/flatMap
// still need every element's outcome evaluated in order to preserve
// predicate/flattening semantics, which the fused-pause shortcut doesn't
// buy them.
func (e *runEnv) builtinMap(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("map", args, kwargs)
	if err != nil {
		return nil, err
	}
	if e.dispatchAt(thread).Kind == transform.DispatchBatchParallel {
		values := iterableToSlice(iterable)
		// The analyzer marks a call site eligible purely from its static
		// shape; the actual element count is only known here, so the
		// threshold below is what decides whether fusing the pauses is
		// actually worth it (spec §4.H step 3).
		if len(values) >= e.batchThreshold {
			return primitives.ResumableMapBatch(thread, e.guard, values, fn, "map.batch")
		}
		return primitives.ResumableMap(thread, e.guard, iterable, fn)
	}
	return primitives.ResumableMap(thread, e.guard, iterable, fn)
}

func (e *runEnv) builtinFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("filter", args, kwargs)
	if err != nil {
		return nil, err
	}
	return primitives.ResumableFilter(thread, e.guard, iterable, fn)
}

func (e *runEnv) builtinForEach(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("forEach", args, kwargs)
	if err != nil {
		return nil, err
	}
	if err := primitives.ResumableForEach(thread, e.guard, iterable, fn); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (e *runEnv) builtinFlatMap(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("flatMap", args, kwargs)
	if err != nil {
		return nil, err
	}
	return primitives.ResumableFlatMap(thread, e.guard, iterable, fn)
}

func (e *runEnv) builtinReduce(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	var fn starlark.Callable
	var initial starlark.Value
	if err := starlark.UnpackArgs("reduce", args, kwargs, "iterable", &iterable, "fn", &fn, "initial?", &initial); err != nil {
		return nil, err
	}
	return primitives.ResumableReduce(thread, e.guard, iterable, fn, initial, initial != nil)
}

func (e *runEnv) builtinFind(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("find", args, kwargs)
	if err != nil {
		return nil, err
	}
	return primitives.ResumableFind(thread, e.guard, iterable, fn)
}

func (e *runEnv) builtinSome(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("some", args, kwargs)
	if err != nil {
		return nil, err
	}
	ok, err := primitives.ResumableSome(thread, e.guard, iterable, fn)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(ok), nil
}

func (e *runEnv) builtinEvery(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("every", args, kwargs)
	if err != nil {
		return nil, err
	}
	ok, err := primitives.ResumableEvery(thread, e.guard, iterable, fn)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(ok), nil
}

func (e *runEnv) builtinForOf(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	iterable, fn, err := unpackIterableFn("resumable_for_of", args, kwargs)
	if err != nil {
		return nil, err
	}
	if err := primitives.ResumableForOf(thread, e.guard, iterable, fn); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (e *runEnv) builtinWhile(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cond, body starlark.Callable
	if err := starlark.UnpackArgs("resumable_while", args, kwargs, "cond", &cond, "body", &body); err != nil {
		return nil, err
	}
	if err := primitives.ResumableWhile(thread, e.guard, cond, body); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (e *runEnv) builtinForLoop(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cond, update, body starlark.Callable
	if err := starlark.UnpackArgs("resumable_for_loop", args, kwargs, "cond", &cond, "update", &update, "body", &body); err != nil {
		return nil, err
	}
	if err := primitives.ResumableForLoop(thread, e.guard, cond, update, body); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (e *runEnv) builtinGather(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var thunks *starlark.List
	if err := starlark.UnpackArgs("resumable_gather", args, kwargs, "thunks", &thunks); err != nil {
		return nil, err
	}
	callables, err := thunksToCallables(thunks)
	if err != nil {
		return nil, err
	}
	return primitives.ResumablePromiseAll(thread, e.guard, callables)
}

func (e *runEnv) builtinGatherSettled(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var thunks *starlark.List
	if err := starlark.UnpackArgs("resumable_gather_settled", args, kwargs, "thunks", &thunks); err != nil {
		return nil, err
	}
	callables, err := thunksToCallables(thunks)
	if err != nil {
		return nil, err
	}
	settled, err := primitives.ResumablePromiseAllSettled(thread, e.guard, callables)
	if err != nil {
		return nil, err
	}

	items := make([]starlark.Value, len(settled))
	for i, s := range settled {
		dict := starlark.NewDict(2)
		_ = dict.SetKey(starlark.String("status"), starlark.String(s.Status))
		if s.Status == "fulfilled" {
			_ = dict.SetKey(starlark.String("value"), s.Value)
		} else {
			_ = dict.SetKey(starlark.String("reason"), starlark.String(s.Reason))
		}
		items[i] = dict
	}
	return starlark.NewList(items), nil
}

func iterableToSlice(iterable starlark.Iterable) []starlark.Value {
	iter := iterable.Iterate()
	defer iter.Done()
	var out []starlark.Value
	var v starlark.Value
	for iter.Next(&v) {
		out = append(out, v)
	}
	return out
}

func thunksToCallables(thunks *starlark.List) ([]starlark.Callable, error) {
	out := make([]starlark.Callable, thunks.Len())
	for i := 0; i < thunks.Len(); i++ {
		fn, ok := thunks.Index(i).(starlark.Callable)
		if !ok {
			return nil, fmt.Errorf("resumable_gather: element is not callable")
		}
		out[i] = fn
	}
	return out, nil
}
