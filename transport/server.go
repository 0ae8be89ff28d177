package transport

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/lexcodex/swarmcrew/engine"
)

// Server exposes a single local engine.Node over the JSON-RPC transport
// (spec §4.7), the same role swarm/server.py's SwarmNodeServicer plays for
// one SwarmNode: every RPC resolves against the one wrapped node.
type Server struct {
	node   *engine.Node
	logger *log.Logger
}

// NewServer wraps node for remote access. A nil logger selects
// log.Default().
func NewServer(node *engine.Node, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{node: node, logger: logger}
}

// ListenAndServe accepts connections on addr until ctx is canceled. Each
// connection gets its own jsonrpc2.Conn; the handler is stateless across
// connections since all state lives on s.node.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer lis.Close()

	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	s.logger.Printf("transport: node %s listening on %s", s.node.ID(), addr)
	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
	handler := jsonrpc2.HandlerWithError(s.handle)
	rpcConn := jsonrpc2.NewConn(ctx, stream, handler)
	<-rpcConn.DisconnectNotify()
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case MethodRegisterNode:
		var params NodeInfo
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		return s.registerNode(params), nil
	case MethodExecuteTask:
		var params TaskMessage
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		return s.executeTask(ctx, params), nil
	case MethodUpdateStatus:
		var params NodeStatus
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		return s.updateStatus(params), nil
	case MethodHeartbeat:
		var params NodeInfo
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		return s.heartbeat(params), nil
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "unknown method " + req.Method}
	}
}

// nodeStatus snapshots s.node into the NodeStatus wire shape shared by
// every RPC response (spec §6).
func (s *Server) nodeStatus() NodeStatus {
	snap := s.node.StatusSnapshot()
	return NodeStatus{NodeID: snap.NodeID, Status: string(snap.Status), CurrentTask: snap.CurrentTask}
}

func (s *Server) registerNode(params NodeInfo) NodeStatus {
	s.logger.Printf("transport: registration request from node %s (agents=%v)", params.NodeID, params.AvailableAgents)
	return s.nodeStatus()
}

func (s *Server) executeTask(ctx context.Context, params TaskMessage) TaskResult {
	start := time.Now()
	res := s.node.ExecutePrompt(ctx, params.Name, params.AgentName, string(params.Data))
	s.logger.Printf("transport: task %s executed on node %s in %s (status=%s)", params.Name, s.node.ID(), time.Since(start), res.Status)
	result := TaskResult{Status: string(res.Status), Error: res.Error}
	if res.Status == engine.ExecuteSuccess {
		result.Result = []byte(res.Result)
	}
	return result
}

func (s *Server) updateStatus(params NodeStatus) NodeStatus {
	s.node.SetStatus(engine.NodeStatus(params.Status))
	return s.nodeStatus()
}

func (s *Server) heartbeat(params NodeInfo) NodeStatus {
	return s.nodeStatus()
}
