package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeExecuteTaskSuccess(t *testing.T) {
	agent := &echoAgent{AgentName: "echo", Prefix: "R:"}
	node := NewNode("n1", NewAgentTable(agent))
	task, err := NewTask("t1", "echo", "{x}", nil, "out")
	require.NoError(t, err)

	ctx := NewValueContext(map[string]any{"x": "hello"})
	res := node.ExecuteTask(context.Background(), task, ctx)
	assert.Equal(t, ExecuteSuccess, res.Status)
	assert.Equal(t, "R:hello", res.Result)
}

func TestNodeExecuteTaskAgentNotAvailable(t *testing.T) {
	node := NewNode("n1", NewAgentTable())
	task, err := NewTask("t1", "missing-agent", "hi", nil, "")
	require.NoError(t, err)

	res := node.ExecuteTask(context.Background(), task, NewValueContext(nil))
	assert.Equal(t, ExecuteError, res.Status)
	assert.Contains(t, res.Error, "missing-agent")
	assert.Contains(t, res.Error, "n1")
}

func TestNodeExecuteTaskMissingVariable(t *testing.T) {
	agent := &echoAgent{AgentName: "echo"}
	node := NewNode("n1", NewAgentTable(agent))
	task, err := NewTask("t1", "echo", "{y}", nil, "")
	require.NoError(t, err)

	res := node.ExecuteTask(context.Background(), task, NewValueContext(nil))
	assert.Equal(t, ExecuteError, res.Status)
	assert.Contains(t, res.Error, "y")
}

func TestNodeExecuteTaskAgentFailure(t *testing.T) {
	agent := &echoAgent{AgentName: "echo", fail: errors.New("boom")}
	node := NewNode("n1", NewAgentTable(agent))
	task, err := NewTask("t1", "echo", "hi", nil, "")
	require.NoError(t, err)

	res := node.ExecuteTask(context.Background(), task, NewValueContext(nil))
	assert.Equal(t, ExecuteError, res.Status)
	assert.Contains(t, res.Error, "boom")
}

func TestNodeStatusSnapshotAndSetStatus(t *testing.T) {
	node := NewNode("n1", NewAgentTable(&echoAgent{AgentName: "a"}))
	snap := node.StatusSnapshot()
	assert.Equal(t, NodeIdle, snap.Status)
	assert.Equal(t, "n1", snap.NodeID)
	assert.ElementsMatch(t, []string{"a"}, snap.AvailableAgents)

	node.SetStatus(NodeBusy)
	assert.Equal(t, NodeBusy, node.StatusSnapshot().Status)

	node.SetStatus(NodeOffline)
	assert.Equal(t, NodeOffline, node.StatusSnapshot().Status)
	assert.Empty(t, node.StatusSnapshot().CurrentTask)
}

func TestNodeExecutePromptBypassesTemplate(t *testing.T) {
	agent := &echoAgent{AgentName: "echo", Prefix: "R:"}
	node := NewNode("n1", NewAgentTable(agent))
	res := node.ExecutePrompt(context.Background(), "t1", "echo", "already rendered")
	assert.Equal(t, ExecuteSuccess, res.Status)
	assert.Equal(t, "R:already rendered", res.Result)
}
