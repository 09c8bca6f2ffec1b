package transform

import "go.starlark.net/syntax"

// callName reduces a call expression's callee to a dotted name
// ("llm.complete", "map", "atp.tool.invoke") so the classifier can match it
// against the known Runtime API and resumable-primitive vocabularies without
// caring how deeply it's dotted.
func callName(e syntax.Expr) string {
	switch n := e.(type) {
	case *syntax.Ident:
		return n.Name
	case *syntax.DotExpr:
		base := callName(n.X)
		if base == "" {
			return n.Name.Name
		}
		return base + "." + n.Name.Name
	default:
		return ""
	}
}

// walker accumulates call-expression sightings across a Starlark file. It is
// a small hand-written visitor rather than a generic AST-walk helper,
// grounded on the same "walk and classify by node kind" shape as the
// tree-sitter traversal in the pack's vjache-cie reference, adapted from a
// tree-sitter cursor to a typed Go AST switch.
type walker struct {
	onCall func(call *syntax.CallExpr)
	onFor  func(fs *syntax.ForStmt)
}

func (w *walker) walkFile(f *syntax.File) {
	for _, stmt := range f.Stmts {
		w.walkStmt(stmt)
	}
}

func (w *walker) walkStmt(stmt syntax.Stmt) {
	switch s := stmt.(type) {
	case *syntax.DefStmt:
		for _, stmt := range s.Body {
			w.walkStmt(stmt)
		}
	case *syntax.IfStmt:
		w.walkExpr(s.Cond)
		for _, stmt := range s.True {
			w.walkStmt(stmt)
		}
		for _, stmt := range s.False {
			w.walkStmt(stmt)
		}
	case *syntax.ForStmt:
		if w.onFor != nil {
			w.onFor(s)
		}
		w.walkExpr(s.Vars)
		w.walkExpr(s.X)
		for _, stmt := range s.Body {
			w.walkStmt(stmt)
		}
	case *syntax.AssignStmt:
		w.walkExpr(s.LHS)
		w.walkExpr(s.RHS)
	case *syntax.ExprStmt:
		w.walkExpr(s.X)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			w.walkExpr(s.Result)
		}
	}
}

func (w *walker) walkExpr(expr syntax.Expr) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *syntax.CallExpr:
		for _, arg := range e.Args {
			w.walkExpr(arg)
		}
		w.onCall(e)
	case *syntax.BinaryExpr:
		w.walkExpr(e.X)
		w.walkExpr(e.Y)
	case *syntax.UnaryExpr:
		w.walkExpr(e.X)
	case *syntax.ParenExpr:
		w.walkExpr(e.X)
	case *syntax.DotExpr:
		w.walkExpr(e.X)
	case *syntax.IndexExpr:
		w.walkExpr(e.X)
		w.walkExpr(e.Y)
	case *syntax.SliceExpr:
		w.walkExpr(e.X)
		w.walkExpr(e.Lo)
		w.walkExpr(e.Hi)
		w.walkExpr(e.Step)
	case *syntax.TupleExpr:
		for _, el := range e.List {
			w.walkExpr(el)
		}
	case *syntax.ListExpr:
		for _, el := range e.List {
			w.walkExpr(el)
		}
	case *syntax.DictExpr:
		for _, entry := range e.List {
			w.walkExpr(entry)
		}
	case *syntax.DictEntry:
		w.walkExpr(e.Key)
		w.walkExpr(e.Value)
	case *syntax.CondExpr:
		w.walkExpr(e.Cond)
		w.walkExpr(e.True)
		w.walkExpr(e.False)
	case *syntax.LambdaExpr:
		w.walkExpr(e.Body)
	}
}

// countRuntimeCalls counts call expressions inside a callback body
// expression (a LambdaExpr's body; callbacks named by a `def` are not
// resolved) whose callee matches one of the known Runtime API names, for the
// batch-eligibility analysis (spec §4.H step 3).
func countRuntimeCalls(body syntax.Expr, runtimeNames map[string]bool) int {
	count := 0
	w := &walker{onCall: func(call *syntax.CallExpr) {
		if runtimeNames[callName(call.Fn)] {
			count++
		}
	}}
	w.walkExpr(body)
	return count
}
