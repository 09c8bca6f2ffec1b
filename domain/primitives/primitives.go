// Package primitives implements the Resumable Primitives (spec §4.F) and the
// Batch Parallel Primitive (spec §4.G): the loop and array-method builtins an
// agent program uses instead of Starlark's native `for`, so that every
// iteration's callback can itself call a Runtime API and pause mid-loop
// without losing the loop's own position.
//
// It has no direct teacher analog — the teacher's AgentExecutor runs a fixed
// ReAct loop, never a user-authored one — so the shape here is new, built in
// the teacher's idiom: small focused types, errors propagated rather than
// panicked, apperror for anything that is a genuine failure rather than a
// pause.
package primitives

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// IterationGuard caps how many iterations a single resumable loop primitive
// may run in one execution attempt, enforcing the infinite-loop guard from
// spec §5 / §8 property 5. Every loop call, including re-execution during
// replay, ticks the same guard — replay is cheap but not free, and a program
// that loops forever must still fail deterministically.
type IterationGuard struct {
	max   int
	count int
}

// NewIterationGuard builds a guard. max <= 0 disables the cap.
func NewIterationGuard(max int) *IterationGuard {
	return &IterationGuard{max: max}
}

// Tick advances the guard by one iteration and reports ErrInfiniteLoop once
// the cap is exceeded.
func (g *IterationGuard) Tick() error {
	g.count++
	if g.max > 0 && g.count > g.max {
		return apperror.ErrInfiniteLoop.WithMessage(fmt.Sprintf("loop exceeded %d iterations", g.max))
	}
	return nil
}

// call0 invokes a zero-argument Starlark callable.
func call0(thread *starlark.Thread, fn starlark.Callable) (starlark.Value, error) {
	return starlark.Call(thread, fn, nil, nil)
}

// callElement invokes a Starlark callback with (value, index) — the shape
// every array-method primitive below uses, mirroring the target language's
// `(element, index) => ...` callback signature.
func callElement(thread *starlark.Thread, fn starlark.Callable, value starlark.Value, index int) (starlark.Value, error) {
	return starlark.Call(thread, fn, starlark.Tuple{value, starlark.MakeInt(index)}, nil)
}

// iterateAll drains a Starlark iterable into a slice, the common first step
// for every array method (they all need random access / a known length for
// index arguments and batch analysis).
func iterateAll(iterable starlark.Iterable) []starlark.Value {
	iter := iterable.Iterate()
	defer iter.Done()

	var out []starlark.Value
	var v starlark.Value
	for iter.Next(&v) {
		out = append(out, v)
	}
	return out
}
