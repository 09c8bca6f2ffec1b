package primitives

import (
	"go.starlark.net/starlark"
)

// ResumableForOf implements atp.forOf: iterate iterable, calling body(value,
// index) for each element. A pause raised by body propagates immediately,
// leaving the loop's own position implicit in the replay table — on the next
// attempt the loop simply runs again from index 0, and every already-cached
// callback inside body resolves instantly (spec §4.B/§4.C), so re-running
// completed iterations costs cache lookups, not re-executed side effects.
func ResumableForOf(thread *starlark.Thread, guard *IterationGuard, iterable starlark.Iterable, body starlark.Callable) error {
	values := iterateAll(iterable)
	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return err
		}
		if _, err := callElement(thread, body, v, i); err != nil {
			return err
		}
	}
	return nil
}

// ResumableWhile implements atp.whileLoop: call cond() before each iteration
// and body() while it is truthy. Both cond and body are zero-argument
// Starlark closures — Starlark has no native while statement, so this is a
// host builtin rather than a rewritten AST node (spec design note 5's
// "reduce a host construct to calls against closures the target language
// does have").
func ResumableWhile(thread *starlark.Thread, guard *IterationGuard, cond, body starlark.Callable) error {
	for {
		if err := guard.Tick(); err != nil {
			return err
		}
		c, err := call0(thread, cond)
		if err != nil {
			return err
		}
		if !c.Truth() {
			return nil
		}
		if _, err := call0(thread, body); err != nil {
			return err
		}
	}
}

// ResumableForLoop implements atp.forLoop: the classic cond/update for,
// expressed as zero-argument cond and update closures plus a body closure,
// for the same reason ResumableWhile takes closures instead of an AST
// fragment. It takes no init closure: loop state is set up by the caller
// before the call.
func ResumableForLoop(thread *starlark.Thread, guard *IterationGuard, cond, update, body starlark.Callable) error {
	for {
		if err := guard.Tick(); err != nil {
			return err
		}
		c, err := call0(thread, cond)
		if err != nil {
			return err
		}
		if !c.Truth() {
			return nil
		}
		if _, err := call0(thread, body); err != nil {
			return err
		}
		if _, err := call0(thread, update); err != nil {
			return err
		}
	}
}
