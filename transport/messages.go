// Package transport implements the remote node fabric (C8): a JSON-RPC 2.0
// request/response service exposing RegisterNode, ExecuteTask, UpdateStatus,
// and Heartbeat, with no streaming and no authentication (spec §4.7). The
// wire envelope is github.com/sourcegraph/jsonrpc2, the same library the
// teacher repo already used for its LSP client connection
// (tools/lsp_process_client.go); only the framing target changes, from a
// subprocess's stdio pipes to a plain TCP connection.
package transport

// DefaultPort is the service's default TCP port (spec §4.7).
const DefaultPort = 50051

// Method names for the four RPCs (spec §4.7). Exported so client and server
// share one source of truth.
const (
	MethodRegisterNode = "RegisterNode"
	MethodExecuteTask  = "ExecuteTask"
	MethodUpdateStatus = "UpdateStatus"
	MethodHeartbeat    = "Heartbeat"
)

// NodeInfo announces a node and the agents it hosts (spec §6): the request
// shape shared by RegisterNode and Heartbeat.
type NodeInfo struct {
	NodeID          string   `json:"node_id"`
	AvailableAgents []string `json:"available_agents"`
	Status          string   `json:"status"`
}

// NodeStatus reports a node's current status (spec §6): the response shape
// for RegisterNode, UpdateStatus, and Heartbeat, and also the request shape
// UpdateStatus uses to push a status change.
type NodeStatus struct {
	NodeID      string `json:"node_id"`
	Status      string `json:"status"`
	CurrentTask string `json:"current_task,omitempty"`
}

// TaskMessage carries a task dispatch to a remote node (spec §6). Data is
// already fully rendered by the caller (convention (a) from spec §9: the
// manager resolves dependencies and template variables locally and ships
// the finalized prompt bytes; the remote node never re-resolves them).
// Dependencies carries the source task names for parity with the wire
// shape, but the remote handler does not consult it (spec §4.7: "the
// dispatching scheduler's dependency resolution is not re-executed on the
// far side").
type TaskMessage struct {
	Name         string   `json:"name"`
	AgentName    string   `json:"agent_name"`
	Data         []byte   `json:"data"`
	Dependencies []string `json:"dependencies"`
}

// TaskResult is the outcome of a remote execution (spec §6).
type TaskResult struct {
	Status string `json:"status"` // "success" or "error"
	Result []byte `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
