package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/lexcodex/swarmcrew/engine"
)

// ClientConn is a dialed connection to one remote node's Server, offering
// typed wrappers around the four RPCs (spec §4.7).
type ClientConn struct {
	conn *jsonrpc2.Conn
}

// Dial connects to a remote node's transport listener at addr.
func Dial(ctx context.Context, addr string) (*ClientConn, error) {
	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(
		func(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) (interface{}, error) {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "client accepts no calls"}
		}))
	return &ClientConn{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *ClientConn) Close() error { return c.conn.Close() }

// RegisterNode announces params to the remote side.
func (c *ClientConn) RegisterNode(ctx context.Context, params NodeInfo) (NodeStatus, error) {
	var result NodeStatus
	err := c.conn.Call(ctx, MethodRegisterNode, params, &result)
	return result, err
}

// ExecuteTask dispatches a pre-rendered task to the remote node.
func (c *ClientConn) ExecuteTask(ctx context.Context, params TaskMessage) (TaskResult, error) {
	var result TaskResult
	err := c.conn.Call(ctx, MethodExecuteTask, params, &result)
	return result, err
}

// UpdateStatus pushes a status change to the remote node.
func (c *ClientConn) UpdateStatus(ctx context.Context, params NodeStatus) (NodeStatus, error) {
	var result NodeStatus
	err := c.conn.Call(ctx, MethodUpdateStatus, params, &result)
	return result, err
}

// Heartbeat pings the remote node for liveness.
func (c *ClientConn) Heartbeat(ctx context.Context, params NodeInfo) (NodeStatus, error) {
	var result NodeStatus
	err := c.conn.Call(ctx, MethodHeartbeat, params, &result)
	return result, err
}

// TransportCallRecord is the evaluator's record of one transport round trip.
type TransportCallRecord = engine.TransportCallRecord

// RemoteNode adapts a ClientConn into an engine.Executor, so the scheduler
// can dispatch to a remote node exactly as it would a local one (spec
// §4.4's "invokes the node's execute operation locally (C4) or over the
// transport (C8)"). Prompt rendering happens here, locally, before the RPC
// — convention (a) for spec §9's open question: the remote side only ever
// sees a finalized string.
type RemoteNode struct {
	nodeID string
	agents map[string]struct{}
	client *ClientConn
	onCall func(TransportCallRecord)

	mu     sync.Mutex
	status engine.NodeStatus
}

// NewRemoteNode wraps client as an Executor for nodeID, which is known to
// host agentNames. onCall, if non-nil, receives a record of every
// ExecuteTask round trip (wire it to an *engine.Evaluator to populate the
// communication graph).
func NewRemoteNode(nodeID string, agentNames []string, client *ClientConn, onCall func(TransportCallRecord)) *RemoteNode {
	agents := make(map[string]struct{}, len(agentNames))
	for _, name := range agentNames {
		agents[name] = struct{}{}
	}
	return &RemoteNode{nodeID: nodeID, agents: agents, client: client, onCall: onCall, status: engine.NodeIdle}
}

func (r *RemoteNode) ID() string { return r.nodeID }

func (r *RemoteNode) HasAgent(name string) bool {
	_, ok := r.agents[name]
	return ok
}

func (r *RemoteNode) SetStatus(status engine.NodeStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *RemoteNode) StatusSnapshot() engine.NodeStatusReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	return engine.NodeStatusReport{NodeID: r.nodeID, Status: r.status, AvailableAgents: names}
}

// ExecuteTask renders task.PromptTemplate against dispatchCtx locally, then
// ships the result over the wire.
func (r *RemoteNode) ExecuteTask(ctx context.Context, task *engine.Task, dispatchCtx *engine.ValueContext) engine.ExecuteResult {
	start := time.Now()

	prompt, err := engine.Render(task.PromptTemplate, dispatchCtx)
	if err != nil {
		return engine.ExecuteResult{Status: engine.ExecuteError, Error: err.Error(), Duration: time.Since(start)}
	}

	reqSize := len(prompt)
	resp, err := r.client.ExecuteTask(ctx, TaskMessage{
		Name:         task.Name,
		AgentName:    task.AgentName,
		Data:         []byte(prompt),
		Dependencies: task.DependencyNames(),
	})
	duration := time.Since(start)

	if r.onCall != nil {
		respSize := len(resp.Result) + len(resp.Error)
		r.onCall(TransportCallRecord{
			Method:       MethodExecuteTask,
			SourceNode:   "manager",
			TargetNode:   r.nodeID,
			Timestamp:    start,
			Duration:     duration,
			RequestSize:  reqSize,
			ResponseSize: respSize,
		})
	}

	if err != nil {
		wrapped := &engine.TransportError{Op: MethodExecuteTask, Err: err}
		return engine.ExecuteResult{Status: engine.ExecuteError, Error: wrapped.Error(), Duration: duration}
	}
	if resp.Status != string(engine.ExecuteSuccess) {
		return engine.ExecuteResult{Status: engine.ExecuteError, Error: resp.Error, Duration: duration}
	}
	return engine.ExecuteResult{Status: engine.ExecuteSuccess, Result: string(resp.Result), Duration: duration}
}

// String implements fmt.Stringer for debugging/log output.
func (r *RemoteNode) String() string {
	return fmt.Sprintf("RemoteNode(%s)", r.nodeID)
}
