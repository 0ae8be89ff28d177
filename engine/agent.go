package engine

import (
	"context"
	"errors"
	"fmt"
)

// Agent is the capability/variant contract from spec §9: anything with a
// single run(prompt) -> result operation is an agent. Concrete executor
// kinds (an Ollama-backed LLM, a canned test double, ...) implement this
// interface; the core never type-switches on what is behind it.
type Agent interface {
	// Name identifies the agent within a single node's agent table. Name
	// uniqueness is scoped to a node, not global (spec §3).
	Name() string
	// Run turns a finalized prompt into a result or fails.
	Run(ctx context.Context, prompt string) (string, error)
}

// AgentFunc adapts a plain function to the Agent interface, the same way
// http.HandlerFunc adapts a function to http.Handler. Useful for tests and
// for small scripted agents that don't need their own type.
type AgentFunc struct {
	AgentName string
	Fn        func(ctx context.Context, prompt string) (string, error)
}

func (f AgentFunc) Name() string { return f.AgentName }

func (f AgentFunc) Run(ctx context.Context, prompt string) (string, error) {
	if f.Fn == nil {
		return "", errors.New("agent " + f.AgentName + " has no run function")
	}
	return f.Fn(ctx, prompt)
}

// AgentTable is the mapping from agent name to handle that a Node owns
// (spec §3). It wraps a plain Go map (no lock: reads are safe only while
// nothing mutates the table) rather than exposing it, so the "mutated only
// by a test-diagnostic path" invariant has a single enforcement point.
type AgentTable struct {
	agents map[string]Agent
}

// NewAgentTable builds a table from the given agents, keyed by Agent.Name().
func NewAgentTable(agents ...Agent) *AgentTable {
	t := &AgentTable{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		t.agents[a.Name()] = a
	}
	return t
}

// Get looks up an agent by name.
func (t *AgentTable) Get(name string) (Agent, bool) {
	a, ok := t.agents[name]
	return a, ok
}

// Has reports whether name is present.
func (t *AgentTable) Has(name string) bool {
	_, ok := t.agents[name]
	return ok
}

// Names returns the table's agent names; order is unspecified.
func (t *AgentTable) Names() []string {
	names := make([]string, 0, len(t.agents))
	for name := range t.agents {
		names = append(names, name)
	}
	return names
}

// SetForTesting mutates the table outside of a run. Spec §3: "the table may
// be mutated only by a test-diagnostic path and never during a run" — the
// name makes that constraint explicit at the call site instead of relying
// on convention.
func (t *AgentTable) SetForTesting(agent Agent) {
	t.agents[agent.Name()] = agent
}

func (t *AgentTable) String() string {
	return fmt.Sprintf("AgentTable(%v)", t.Names())
}
