package runtime

import "github.com/look4regev/agent-tool-protocol-sub003/domain/engine"

// Complete implements atp.llm.complete: request a completion for prompt with
// the given provider options. On a replay hit it returns the cached
// completion text directly; otherwise it raises a PauseKindLLM pause.
func Complete(sc *engine.SequenceCounter, prompt string, options map[string]any) (string, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return "", err
	}
	if hit {
		text, _ := rec.Value.(string)
		return text, nil
	}
	return "", engine.NewPause(engine.PauseKindLLM, "llm.complete", seq, engine.PausePayload{
		Prompt:  prompt,
		Options: options,
	})
}
