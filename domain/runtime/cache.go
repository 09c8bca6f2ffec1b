package runtime

import "github.com/look4regev/agent-tool-protocol-sub003/domain/engine"

// CacheGet implements atp.cache.get: a key/value store external to the
// Execution, shared across its whole lifetime and across Executions sharing
// the same namespace. Unlike the Checkpoint Manager's internal replay cache,
// this one is addressed by the agent program itself and goes through the
// same pause/resume round trip as any other Runtime API.
func CacheGet(sc *engine.SequenceCounter, key string) (any, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return nil, err
	}
	if hit {
		return rec.Value, nil
	}
	return nil, engine.NewPause(engine.PauseKindCache, "cache.get", seq, engine.PausePayload{
		CacheOp:  "get",
		CacheKey: key,
	})
}

// CacheSet implements atp.cache.set.
func CacheSet(sc *engine.SequenceCounter, key string, value any) (any, error) {
	seq, rec, hit, err := resolve(sc)
	if err != nil {
		return nil, err
	}
	if hit {
		return rec.Value, nil
	}
	return nil, engine.NewPause(engine.PauseKindCache, "cache.set", seq, engine.PausePayload{
		CacheOp:    "set",
		CacheKey:   key,
		CacheValue: value,
	})
}
