package transform

import "go.starlark.net/syntax"

// PositionKey is a comparable, map-safe projection of syntax.Position: the
// dispatch table is keyed by (line, col) within the source, which is exactly
// what a running builtin recovers from its caller's frame,
// thread.CallFrame(1).Pos.
type PositionKey struct {
	Line int32
	Col  int32
}

func keyOf(pos syntax.Position) PositionKey {
	return PositionKey{Line: pos.Line, Col: pos.Col}
}
