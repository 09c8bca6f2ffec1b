package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

func TestTransform_ParsesSimpleProgram(t *testing.T) {
	tr := NewTransformer(10, 2)
	result, err := tr.Transform("x = 1 + 2\n")
	require.NoError(t, err)
	assert.NotEmpty(t, result.CodeHash)
	assert.Empty(t, result.Metadata.Patterns)
}

func TestTransform_DetectsArrayMethodAndBatchEligibility(t *testing.T) {
	tr := NewTransformer(10, 2)
	src := `
results = map(items, lambda x, i: llm.complete(x, {}))
`
	result, err := tr.Transform(src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata.ArrayMethodsRewritten)
	assert.Equal(t, 1, result.Metadata.ParallelCallsRewritten)
	assert.True(t, result.Metadata.BatchParallelEmitted)
	assert.Contains(t, result.Metadata.Patterns, "batch-parallel")
}

func TestTransform_DetectsForLoopNestedInsideDef(t *testing.T) {
	tr := NewTransformer(10, 2)
	src := `
def main():
    total = ""
    for x in items:
        total = total + llm.complete(x, {})
    return total
`
	result, err := tr.Transform(src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata.LoopsTransformed)
	assert.Contains(t, result.Metadata.Patterns, "loop")
}

func TestTransform_SequentialWhenCallbackHasMultipleRuntimeCalls(t *testing.T) {
	tr := NewTransformer(10, 2)
	src := `
results = map(items, lambda x, i: tool.invoke("a", {}) + llm.complete(x, {}))
`
	result, err := tr.Transform(src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata.ArrayMethodsRewritten)
	assert.False(t, result.Metadata.BatchParallelEmitted)
}

func TestTransform_IsCachedByContentHash(t *testing.T) {
	tr := NewTransformer(10, 2)
	src := "x = 1\n"

	first, err := tr.Transform(src)
	require.NoError(t, err)
	second, err := tr.Transform(src)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestTransform_IsIdempotentAcrossDistinctTransformers(t *testing.T) {
	src := "y = map(xs, lambda v, i: v)\n"
	a := NewTransformer(10, 2)
	b := NewTransformer(10, 2)

	ra, err := a.Transform(src)
	require.NoError(t, err)
	rb, err := b.Transform(src)
	require.NoError(t, err)
	assert.Equal(t, ra.CodeHash, rb.CodeHash)
	assert.Equal(t, ra.Metadata, rb.Metadata)
}

func TestTransform_ParseErrorSurfacesAsApperror(t *testing.T) {
	tr := NewTransformer(10, 2)
	_, err := tr.Transform("def f(:\n")
	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindParseError, appErr.Kind)
}

func TestTransform_EvictsOldestWhenCacheFull(t *testing.T) {
	tr := NewTransformer(1, 2)
	_, err := tr.Transform("x = 1\n")
	require.NoError(t, err)
	_, err = tr.Transform("x = 2\n")
	require.NoError(t, err)

	assert.Len(t, tr.cache, 1)
	assert.NotContains(t, tr.cache, Hash("x = 1\n"))
	assert.Contains(t, tr.cache, Hash("x = 2\n"))
}
