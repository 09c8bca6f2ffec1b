package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestResumablePromiseAll_CollectsInOrder(t *testing.T) {
	thread := &starlark.Thread{}
	globals, err := starlark.ExecFile(thread, "test.star", `
def a():
    return 1
def b():
    return 2
`, nil)
	require.NoError(t, err)

	guard := NewIterationGuard(100)
	thunks := []starlark.Callable{globals["a"].(starlark.Callable), globals["b"].(starlark.Callable)}
	result, err := ResumablePromiseAll(thread, guard, thunks)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", result.String())
}

func TestResumablePromiseAllSettled_CapturesRejection(t *testing.T) {
	thread := &starlark.Thread{}
	globals, err := starlark.ExecFile(thread, "test.star", `
def ok():
    return "fine"
def bad():
    fail("boom")
`, nil)
	require.NoError(t, err)

	guard := NewIterationGuard(100)
	thunks := []starlark.Callable{globals["ok"].(starlark.Callable), globals["bad"].(starlark.Callable)}
	results, err := ResumablePromiseAllSettled(thread, guard, thunks)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "fulfilled", results[0].Status)
	assert.Equal(t, "rejected", results[1].Status)
	assert.Contains(t, results[1].Reason, "boom")
}
