package engine

import (
	"context"
	"sync"
	"time"
)

// NodeStatus is a worker node's state tag (spec §3, §4.3): idle, busy, or
// offline. The transitions are idle -> busy -> idle around each execution
// and idle|busy -> offline on shutdown.
type NodeStatus string

const (
	NodeIdle    NodeStatus = "idle"
	NodeBusy    NodeStatus = "busy"
	NodeOffline NodeStatus = "offline"
)

// ExecuteOutcome is the status of a node's ExecuteTask result: success, or
// error for each of the three failure outcomes of spec §4.3 (agent missing,
// missing variable, agent failure), which differ only in ExecuteResult.Error.
type ExecuteOutcome string

const (
	ExecuteSuccess ExecuteOutcome = "success"
	ExecuteError   ExecuteOutcome = "error"
)

// ExecuteResult is what a Node (local or remote) returns for one task
// execution.
type ExecuteResult struct {
	Status   ExecuteOutcome
	Result   string
	Error    string
	Duration time.Duration
}

// NodeStatusReport is the payload of Executor.StatusSnapshot (spec §4.3).
type NodeStatusReport struct {
	NodeID          string
	Status          NodeStatus
	CurrentTask     string
	AvailableAgents []string
}

// Executor is the capability the scheduler actually dispatches against. A
// local Node and a transport-backed remote node (see package transport)
// both implement it, so the scheduler never needs to know which kind of
// node it is talking to (spec §4.4: "invokes the node's execute operation
// locally (C4) or over the transport (C8)").
type Executor interface {
	ID() string
	StatusSnapshot() NodeStatusReport
	SetStatus(NodeStatus)
	HasAgent(name string) bool
	ExecuteTask(ctx context.Context, task *Task, dispatchCtx *ValueContext) ExecuteResult
}

// Node is a worker hosting a fixed set of agents (spec §3, §4.3). It is a
// pure function of (task, context) modulo agent side effects: it never
// retries and never consults dependencies or the queue — that is the
// scheduler's job.
type Node struct {
	id     string
	agents *AgentTable

	mu          sync.Mutex
	status      NodeStatus
	currentTask string
}

// NewNode builds a node with a fixed agent table.
func NewNode(id string, agents *AgentTable) *Node {
	if agents == nil {
		agents = NewAgentTable()
	}
	return &Node{id: id, agents: agents, status: NodeIdle}
}

// ID returns the node's identifier.
func (n *Node) ID() string { return n.id }

// HasAgent reports whether this node's table contains name.
func (n *Node) HasAgent(name string) bool {
	return n.agents.Has(name)
}

// SetStatus forces the node's status tag, used by the scheduler to mark a
// node busy immediately before dispatch and idle immediately after (spec
// §5: "the node's idle/busy flag, transitioned under the main mutex before
// dispatch").
func (n *Node) SetStatus(status NodeStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = status
	if status != NodeBusy {
		n.currentTask = ""
	}
}

// StatusSnapshot implements Executor.StatusSnapshot: safe to call concurrently
// with ExecuteTask (spec §4.3).
func (n *Node) StatusSnapshot() NodeStatusReport {
	n.mu.Lock()
	defer n.mu.Unlock()
	return NodeStatusReport{
		NodeID:          n.id,
		Status:          n.status,
		CurrentTask:     n.currentTask,
		AvailableAgents: n.agents.Names(),
	}
}

// ExecuteTask renders the task's prompt against dispatchCtx and invokes the
// bound agent, returning one of the four outcomes in spec §4.3.
func (n *Node) ExecuteTask(ctx context.Context, task *Task, dispatchCtx *ValueContext) ExecuteResult {
	start := time.Now()

	n.mu.Lock()
	n.currentTask = task.Name
	n.mu.Unlock()

	agent, ok := n.agents.Get(task.AgentName)
	if !ok {
		err := &AgentNotAvailableError{Node: n.id, Agent: task.AgentName}
		return ExecuteResult{Status: ExecuteError, Error: err.Error(), Duration: time.Since(start)}
	}

	prompt, err := Render(task.PromptTemplate, dispatchCtx)
	if err != nil {
		if mv, ok := err.(*MissingVariableError); ok {
			mv.Task = task.Name
		}
		return ExecuteResult{Status: ExecuteError, Error: err.Error(), Duration: time.Since(start)}
	}

	result, err := agent.Run(ctx, prompt)
	if err != nil {
		failure := &AgentFailureError{Task: task.Name, Err: err}
		return ExecuteResult{Status: ExecuteError, Error: failure.Error(), Duration: time.Since(start)}
	}

	return ExecuteResult{Status: ExecuteSuccess, Result: result, Duration: time.Since(start)}
}

// ExecutePrompt runs an already-rendered prompt directly against a named
// agent, bypassing template binding. This is the "minimal task record" path
// spec §4.7/§9 describes for the remote side of the transport under
// convention (a): the manager renders the prompt locally and ships the
// finalized string, so the remote node only needs to invoke the agent.
func (n *Node) ExecutePrompt(ctx context.Context, taskName, agentName, prompt string) ExecuteResult {
	start := time.Now()

	n.mu.Lock()
	n.currentTask = taskName
	n.mu.Unlock()

	agent, ok := n.agents.Get(agentName)
	if !ok {
		err := &AgentNotAvailableError{Node: n.id, Agent: agentName}
		return ExecuteResult{Status: ExecuteError, Error: err.Error(), Duration: time.Since(start)}
	}

	result, err := agent.Run(ctx, prompt)
	if err != nil {
		failure := &AgentFailureError{Task: taskName, Err: err}
		return ExecuteResult{Status: ExecuteError, Error: failure.Error(), Duration: time.Since(start)}
	}
	return ExecuteResult{Status: ExecuteSuccess, Result: result, Duration: time.Since(start)}
}

// Agents exposes the node's agent table for test-diagnostic mutation only
// (spec §3).
func (n *Node) Agents() *AgentTable {
	return n.agents
}
