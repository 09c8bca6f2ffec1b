package runtime

import "github.com/look4regev/agent-tool-protocol-sub003/domain/engine"

// Embed implements atp.embedding.embed: embed a single string. On a replay
// hit it returns the cached vector; otherwise it raises a PauseKindEmbedding
// pause carrying the single text.
func Embed(sc *engine.SequenceCounter, text string) (any, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return nil, err
	}
	if hit {
		return rec.Value, nil
	}
	return nil, engine.NewPause(engine.PauseKindEmbedding, "embedding.embed", seq, engine.PausePayload{
		Text: text,
	})
}

// EmbedBatch implements atp.embedding.embedBatch: embed many strings in one
// callback round trip, distinct from the Batch Parallel Primitive (spec
// §4.G) — this is a single callback whose payload happens to carry a list,
// not a fused set of independently-sequenced calls.
func EmbedBatch(sc *engine.SequenceCounter, texts []string) (any, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return nil, err
	}
	if hit {
		return rec.Value, nil
	}
	return nil, engine.NewPause(engine.PauseKindEmbedding, "embedding.embedBatch", seq, engine.PausePayload{
		Texts: texts,
	})
}
