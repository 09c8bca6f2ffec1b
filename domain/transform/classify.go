package transform

import "go.starlark.net/syntax"

// DispatchKind is how the Sandbox Executor should run a resumable-eligible
// call site.
type DispatchKind string

const (
	DispatchSequential   DispatchKind = "sequential"
	DispatchBatchParallel DispatchKind = "batch-parallel"
)

// DispatchEntry is one row of the position-keyed dispatch table (spec §4.H
// step 7, resolved in SPEC_FULL for Starlark as "(source text, dispatch
// table)" instead of a rewritten AST).
type DispatchEntry struct {
	Construct string
	Kind      DispatchKind
}

// arrayMethods are the array-method family builtins the batch analyzer may
// upgrade to batch-parallel dispatch.
var arrayMethods = map[string]bool{
	"map": true, "filter": true, "forEach": true, "flatMap": true,
}

// runtimeAPIs are the Runtime API names the batch analyzer looks for inside
// a callback body (spec §4.E).
var runtimeAPIs = map[string]bool{
	"llm.complete": true, "approval.request": true,
	"embedding.embed": true, "embedding.embedBatch": true,
	"tool.invoke": true, "cache.get": true, "cache.set": true,
}

// resumablePrimitives are the loop/gather builtins that always dispatch
// sequentially and are counted for TransformMetadata but never batched.
var resumablePrimitives = map[string]bool{
	"resumable_while": true, "resumable_for_loop": true,
	"resumable_gather": true, "resumable_gather_settled": true,
	"reduce": true, "find": true, "some": true, "every": true,
}

// classification is the per-source-file output of walking and classifying
// every resumable call site, before it is wrapped into a cached Result.
type classification struct {
	dispatch               map[PositionKey]DispatchEntry
	loopsTransformed       int
	arrayMethodsRewritten  int
	parallelCallsRewritten int
	batchParallelEmitted   bool
}

// classify walks file and decides, for every array-method call site, whether
// its callback makes exactly one Runtime API call per element (the batch
// analyzer, spec §4.H step 3) — and if so marks it eligible for
// batch-parallel dispatch. No element count is checked here (batchThreshold
// is not consulted); the Sandbox Executor makes the threshold-based call at
// run time using the actual element count.
func classify(file *syntax.File, batchThreshold int) *classification {
	c := &classification{dispatch: make(map[PositionKey]DispatchEntry)}

	w := &walker{
		onFor: func(fs *syntax.ForStmt) {
			c.loopsTransformed++
			c.dispatch[keyOf(fs.For)] = DispatchEntry{Construct: "for", Kind: DispatchSequential}
		},
		onCall: func(call *syntax.CallExpr) {
			name := callName(call.Fn)

			switch {
			case name == "resumable_for_of":
				c.loopsTransformed++
				c.dispatch[keyOf(call.Lparen)] = DispatchEntry{Construct: name, Kind: DispatchSequential}
			case resumablePrimitives[name]:
				c.loopsTransformed++
				c.dispatch[keyOf(call.Lparen)] = DispatchEntry{Construct: name, Kind: DispatchSequential}
			case arrayMethods[name]:
				c.arrayMethodsRewritten++
				kind := DispatchSequential
				if len(call.Args) > 0 && isBatchEligible(call.Args[len(call.Args)-1]) {
					kind = DispatchBatchParallel
					c.parallelCallsRewritten++
					c.batchParallelEmitted = true
				}
				c.dispatch[keyOf(call.Lparen)] = DispatchEntry{Construct: name, Kind: kind}
			}
		},
	}

	w.walkFile(file)
	return c
}

// isBatchEligible implements the batch analyzer: true when callback makes
// exactly one Runtime API call and does not itself contain a nested
// resumable loop or array-method call (which would make per-element call
// counts non-uniform and unsafe to fuse into one pause).
func isBatchEligible(callback syntax.Expr) bool {
	lambda, ok := callback.(*syntax.LambdaExpr)
	if !ok {
		return false
	}
	if countRuntimeCalls(lambda.Body, runtimeAPIs) != 1 {
		return false
	}
	nested := 0
	w := &walker{onCall: func(call *syntax.CallExpr) {
		name := callName(call.Fn)
		if arrayMethods[name] || resumablePrimitives[name] {
			nested++
		}
	}}
	w.walkExpr(lambda.Body)
	return nested == 0
}
