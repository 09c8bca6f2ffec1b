package runtime

import "github.com/look4regev/agent-tool-protocol-sub003/domain/engine"

// InvokeTool implements atp.tool.invoke: call a registered tool by name with
// structured input. On a replay hit it returns the cached tool result;
// otherwise it raises a PauseKindTool pause.
func InvokeTool(sc *engine.SequenceCounter, name string, input map[string]any) (any, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return nil, err
	}
	if hit {
		return rec.Value, nil
	}
	return nil, engine.NewPause(engine.PauseKindTool, "tool.invoke", seq, engine.PausePayload{
		ToolName: name,
		Input:    input,
	})
}
