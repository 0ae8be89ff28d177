package engine

import "fmt"

// ValidationKind categorizes structural validation failures raised by the
// builder (see Builder.Validate). Keeping the kind as a typed string lets
// callers switch on category without string-matching Error().
type ValidationKind string

const (
	ValidationCycle              ValidationKind = "cycle"
	ValidationUnknownAgent       ValidationKind = "unknown_agent"
	ValidationDanglingDependency ValidationKind = "dangling_dependency"
	ValidationDuplicateResultKey ValidationKind = "duplicate_result_key"
	ValidationMismatchedResult   ValidationKind = "mismatched_result_key"
	ValidationMalformedTemplate  ValidationKind = "malformed_template"
	ValidationDuplicateTaskName  ValidationKind = "duplicate_task_name"
)

// ValidationError is the structural error taxonomy member from spec §7:
// cycle, unknown agent, dangling dependency, duplicate result key, or
// mismatched dependency result key.
type ValidationError struct {
	Kind   ValidationKind
	Task   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("validation error (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("validation error (%s) on task %q: %s", e.Kind, e.Task, e.Detail)
}

// MissingVariableError reports that a template placeholder had no entry in
// the render context (spec §4.1, §7).
type MissingVariableError struct {
	Task     string
	Variable string
}

func (e *MissingVariableError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("missing variable %q", e.Variable)
	}
	return fmt.Sprintf("task %s missing variable %q", e.Task, e.Variable)
}

// AgentNotAvailableError is returned by a Node when the requested agent is
// not present in its agent table (spec §4.3, §7).
type AgentNotAvailableError struct {
	Node  string
	Agent string
}

func (e *AgentNotAvailableError) Error() string {
	return fmt.Sprintf("agent %s not found on node %s", e.Agent, e.Node)
}

// AgentFailureError wraps the error an agent's Run operation returned.
type AgentFailureError struct {
	Task string
	Err  error
}

func (e *AgentFailureError) Error() string {
	return fmt.Sprintf("task %s: agent failed: %v", e.Task, e.Err)
}

func (e *AgentFailureError) Unwrap() error { return e.Err }

// DeadlockError is raised when a full rotation of the queue dispatches
// nothing (spec §4.4, §7).
type DeadlockError struct {
	Remaining []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock detected: %d task(s) unreachable: %v", len(e.Remaining), e.Remaining)
}

// TransportError wraps a failure from the remote transport (spec §4.7, §7).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
