package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/primitives"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/runtime"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/transform"
)

// runEnv bundles everything one Submit/Resume attempt's Starlark environment
// needs: the sequence counter the Runtime APIs advance, the iteration guard
// the loop/array-method primitives enforce, and the position-keyed dispatch
// table the Code Transformer produced for this program.
type runEnv struct {
	sc             *engine.SequenceCounter
	guard          *primitives.IterationGuard
	reporter       *runtime.Reporter
	dispatch       map[transform.PositionKey]transform.DispatchEntry
	batchThreshold int
}

// dispatchAt looks up the classification for the call site a builtin is
// currently running from (spec's Code Transformer output representation:
// "each builtin looks up its own call site's position in the metadata
// table"). Depth 0 is the builtin's own frame, so the call site is read from
// depth 1, the Starlark caller. Sequential is the safe default when a
// position isn't found (e.g. a program built dynamically, or called from a
// context with no static call site).
func (e *runEnv) dispatchAt(thread *starlark.Thread) transform.DispatchEntry {
	frame := thread.CallFrame(1)
	key := transform.PositionKey{Line: frame.Pos.Line, Col: frame.Pos.Col}
	if entry, ok := e.dispatch[key]; ok {
		return entry
	}
	return transform.DispatchEntry{Kind: transform.DispatchSequential}
}

// buildGlobals constructs the predeclared Starlark environment for one
// execution attempt: the atp.* Runtime API namespaces (as
// starlarkstruct.Module values, the idiomatic go.starlark.net way to expose a
// dotted host namespace) plus the top-level resumable primitive builtins.
func buildGlobals(e *runEnv) starlark.StringDict {
	return starlark.StringDict{
		"llm":       llmModule(e),
		"approval":  approvalModule(e),
		"progress":  progressModule(e),
		"embedding": embeddingModule(e),
		"tool":      toolModule(e),
		"cache":     cacheModule(e),

		"map":     starlark.NewBuiltin("map", e.builtinMap),
		"filter":  starlark.NewBuiltin("filter", e.builtinFilter),
		"forEach": starlark.NewBuiltin("forEach", e.builtinForEach),
		"flatMap": starlark.NewBuiltin("flatMap", e.builtinFlatMap),
		"reduce":  starlark.NewBuiltin("reduce", e.builtinReduce),
		"find":    starlark.NewBuiltin("find", e.builtinFind),
		"some":    starlark.NewBuiltin("some", e.builtinSome),
		"every":   starlark.NewBuiltin("every", e.builtinEvery),

		"resumable_for_of":         starlark.NewBuiltin("resumable_for_of", e.builtinForOf),
		"resumable_while":          starlark.NewBuiltin("resumable_while", e.builtinWhile),
		"resumable_for_loop":       starlark.NewBuiltin("resumable_for_loop", e.builtinForLoop),
		"resumable_gather":         starlark.NewBuiltin("resumable_gather", e.builtinGather),
		"resumable_gather_settled": starlark.NewBuiltin("resumable_gather_settled", e.builtinGatherSettled),
	}
}

func llmModule(e *runEnv) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "llm",
		Members: starlark.StringDict{
			"complete": starlark.NewBuiltin("llm.complete", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var prompt starlark.String
				var options starlark.Value
				if err := starlark.UnpackArgs("complete", args, kwargs, "prompt", &prompt, "options?", &options); err != nil {
					return nil, err
				}
				opts, err := toGoMap(options)
				if err != nil {
					return nil, err
				}
				text, err := runtime.Complete(e.sc, string(prompt), opts)
				if err != nil {
					return nil, err
				}
				return starlark.String(text), nil
			}),
		},
	}
}

func approvalModule(e *runEnv) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "approval",
		Members: starlark.StringDict{
			"request": starlark.NewBuiltin("approval.request", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var message starlark.String
				var approvalCtx, schema starlark.Value
				if err := starlark.UnpackArgs("request", args, kwargs, "message", &message, "context?", &approvalCtx, "schema?", &schema); err != nil {
					return nil, err
				}
				ctxMap, err := toGoMap(approvalCtx)
				if err != nil {
					return nil, err
				}
				schemaMap, err := toGoMap(schema)
				if err != nil {
					return nil, err
				}
				result, err := runtime.RequestApproval(e.sc, string(message), ctxMap, schemaMap)
				if err != nil {
					return nil, err
				}
				return toStarlark(result)
			}),
		},
	}
}

func progressModule(e *runEnv) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "progress",
		Members: starlark.StringDict{
			"report": starlark.NewBuiltin("progress.report", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var message starlark.String
				var fields starlark.Value
				if err := starlark.UnpackArgs("report", args, kwargs, "message", &message, "fields?", &fields); err != nil {
					return nil, err
				}
				fieldsMap, err := toGoMap(fields)
				if err != nil {
					return nil, err
				}
				e.reporter.Report(string(message), fieldsMap)
				return starlark.None, nil
			}),
		},
	}
}

func embeddingModule(e *runEnv) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "embedding",
		Members: starlark.StringDict{
			"embed": starlark.NewBuiltin("embedding.embed", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var text starlark.String
				if err := starlark.UnpackArgs("embed", args, kwargs, "text", &text); err != nil {
					return nil, err
				}
				result, err := runtime.Embed(e.sc, string(text))
				if err != nil {
					return nil, err
				}
				return toStarlark(result)
			}),
			"embedBatch": starlark.NewBuiltin("embedding.embedBatch", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var texts *starlark.List
				if err := starlark.UnpackArgs("embedBatch", args, kwargs, "texts", &texts); err != nil {
					return nil, err
				}
				strs := make([]string, texts.Len())
				for i := 0; i < texts.Len(); i++ {
					s, ok := starlark.AsString(texts.Index(i))
					if !ok {
						return nil, fmt.Errorf("embedBatch: texts must be strings")
					}
					strs[i] = s
				}
				result, err := runtime.EmbedBatch(e.sc, strs)
				if err != nil {
					return nil, err
				}
				return toStarlark(result)
			}),
		},
	}
}

func toolModule(e *runEnv) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "tool",
		Members: starlark.StringDict{
			"invoke": starlark.NewBuiltin("tool.invoke", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var name starlark.String
				var input starlark.Value
				if err := starlark.UnpackArgs("invoke", args, kwargs, "name", &name, "input?", &input); err != nil {
					return nil, err
				}
				inputMap, err := toGoMap(input)
				if err != nil {
					return nil, err
				}
				result, err := runtime.InvokeTool(e.sc, string(name), inputMap)
				if err != nil {
					return nil, err
				}
				return toStarlark(result)
			}),
		},
	}
}

func cacheModule(e *runEnv) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "cache",
		Members: starlark.StringDict{
			"get": starlark.NewBuiltin("cache.get", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var key starlark.String
				if err := starlark.UnpackArgs("get", args, kwargs, "key", &key); err != nil {
					return nil, err
				}
				result, err := runtime.CacheGet(e.sc, string(key))
				if err != nil {
					return nil, err
				}
				return toStarlark(result)
			}),
			"set": starlark.NewBuiltin("cache.set", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var key starlark.String
				var value starlark.Value
				if err := starlark.UnpackArgs("set", args, kwargs, "key", &key, "value", &value); err != nil {
					return nil, err
				}
				goValue, err := toGo(value)
				if err != nil {
					return nil, err
				}
				result, err := runtime.CacheSet(e.sc, string(key), goValue)
				if err != nil {
					return nil, err
				}
				return toStarlark(result)
			}),
		},
	}
}
