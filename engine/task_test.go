package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRejectsMalformedTemplate(t *testing.T) {
	_, err := NewTask("t1", "agentA", "hello {name", nil, "")
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "t1", ve.Task)
}

func TestTaskDependenciesMetIgnoresTemplateVars(t *testing.T) {
	task, err := NewTask("t1", "agentA", "{unrelated}", []TaskDependency{{SourceTask: "src", ResultKey: "k"}}, "")
	require.NoError(t, err)

	ctx := NewValueContext(map[string]any{"k": "v"})
	assert.True(t, task.DependenciesMet(ctx), "dependency slot is present even though template var is not")
	assert.False(t, task.Ready(ctx), "full readiness also requires template vars")
}

func TestTaskReadyRequiresBothDependenciesAndTemplateVars(t *testing.T) {
	task, err := NewTask("t1", "agentA", "{k}", []TaskDependency{{SourceTask: "src", ResultKey: "k"}}, "")
	require.NoError(t, err)

	empty := NewValueContext(nil)
	assert.False(t, task.Ready(empty))

	full := NewValueContext(map[string]any{"k": "v"})
	assert.True(t, task.Ready(full))
}

func TestTaskWithNoDependenciesOrVarsIsImmediatelyReady(t *testing.T) {
	task, err := NewTask("t1", "agentA", "static prompt", nil, "")
	require.NoError(t, err)
	assert.True(t, task.Ready(NewValueContext(nil)))
	assert.True(t, task.DependenciesMet(NewValueContext(nil)))
}

func TestTaskLifecycleTransitions(t *testing.T) {
	task, err := NewTask("t1", "agentA", "hi", nil, "out")
	require.NoError(t, err)
	assert.Equal(t, TaskPending, task.Status())

	task.markRunning()
	assert.Equal(t, TaskRunning, task.Status())

	task.markComplete("result")
	assert.Equal(t, TaskComplete, task.Status())
	result, err := task.Result()
	assert.Equal(t, "result", result)
	assert.NoError(t, err)
}

func TestTaskMarkFailedRecordsError(t *testing.T) {
	task, err := NewTask("t1", "agentA", "hi", nil, "")
	require.NoError(t, err)
	sentinel := &AgentFailureError{Task: "t1", Err: assert.AnError}
	task.markFailed(sentinel)
	assert.Equal(t, TaskFailed, task.Status())
	_, gotErr := task.Result()
	assert.ErrorIs(t, gotErr, sentinel)
}

func TestRequiredVarsIsStableAndMatchesMissingVariableBehavior(t *testing.T) {
	task, err := NewTask("t1", "agentA", "{a} {b} {a}", nil, "")
	require.NoError(t, err)
	first := task.RequiredVars()
	second := task.RequiredVars()
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"a", "b"}, first)

	for _, v := range first {
		ctx := NewValueContext(map[string]any{"a": "1", "b": "2"})
		// remove exactly one variable, confirm Render fails naming it.
		ctx2 := NewValueContext(nil)
		for _, other := range first {
			if other == v {
				continue
			}
			val, _ := ctx.Get(other)
			require.NoError(t, ctx2.SetOnce(other, val))
		}
		_, renderErr := Render(task.PromptTemplate, ctx2)
		require.Error(t, renderErr)
		var mv *MissingVariableError
		require.ErrorAs(t, renderErr, &mv)
		assert.Equal(t, v, mv.Variable)
	}
}
