package runtime

import "github.com/look4regev/agent-tool-protocol-sub003/domain/engine"

// RequestApproval implements atp.approval.request: ask a human (or
// human-equivalent) reviewer to approve an action, optionally validating
// their answer against an input schema. On a replay hit it returns the
// recorded decision; otherwise it raises a PauseKindApproval pause.
func RequestApproval(sc *engine.SequenceCounter, message string, approvalCtx, schema map[string]any) (any, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return nil, err
	}
	if hit {
		return rec.Value, nil
	}
	return nil, engine.NewPause(engine.PauseKindApproval, "approval.request", seq, engine.PausePayload{
		Message: message,
		Context: approvalCtx,
		Schema:  schema,
	})
}
