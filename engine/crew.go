package engine

import (
	"context"
	"fmt"
	"sync"
)

// Crew is the façade from spec §4.5: a named task graph bound to a result
// context and a scheduler, with no public API beyond "run it". Construction
// is via Builder; Crew itself does not validate.
type Crew struct {
	Name      string
	Tasks     []*Task
	Context   *ValueContext
	Scheduler *Scheduler
}

// Run executes the crew's tasks sequentially in dependency order (spec
// §4.4).
func (c *Crew) Run(ctx context.Context) error {
	return c.Scheduler.Run(ctx)
}

// RunParallel executes the crew's tasks in dependency-ready batches (spec
// §4.2).
func (c *Crew) RunParallel(ctx context.Context) error {
	return c.Scheduler.RunParallel(ctx)
}

// Results returns a snapshot of the crew's shared result context after a
// run.
func (c *Crew) Results() map[string]any {
	return c.Context.Snapshot()
}

// SwarmCrew is a Crew whose node fabric can grow and shrink at runtime
// (spec §4.6), mirroring swarm/manager.py's SwarmManager: nodes register
// and deregister independently of the task graph being fixed at build time.
type SwarmCrew struct {
	*Crew

	mu        sync.Mutex
	executors map[string]Executor
}

// NewSwarmCrew wraps crew with a mutable registry of executors. The
// crew's own Scheduler.executors list is left as built (the nodes present
// at Build time); nodes registered afterward are added to both places so
// a subsequent Run sees them.
func NewSwarmCrew(crew *Crew, initial []Executor) *SwarmCrew {
	executors := make(map[string]Executor, len(initial))
	for _, ex := range initial {
		executors[ex.ID()] = ex
	}
	return &SwarmCrew{Crew: crew, executors: executors}
}

// RegisterNode adds a node to the fabric (spec §4.6, swarm/manager.py
// register_node). An ID that is already registered is rejected with an
// error and the existing entry is kept.
func (s *SwarmCrew) RegisterNode(ex Executor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.executors[ex.ID()]; exists {
		return fmt.Errorf("node %s is already registered", ex.ID())
	}
	s.executors[ex.ID()] = ex
	s.Scheduler.mu.Lock()
	s.Scheduler.executors = append(s.Scheduler.executors, ex)
	s.Scheduler.mu.Unlock()
	return nil
}

// DeregisterNode marks a node offline and removes it from the fabric.
// DeregisterNode does not cancel in-flight work: a task the node is
// executing runs on to its ordinary result (spec §4.6 leaves cancellation
// unspecified).
func (s *SwarmCrew) DeregisterNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, ok := s.executors[nodeID]
	if !ok {
		return
	}
	ex.SetStatus(NodeOffline)
	delete(s.executors, nodeID)

	s.Scheduler.mu.Lock()
	filtered := s.Scheduler.executors[:0]
	for _, e := range s.Scheduler.executors {
		if e.ID() != nodeID {
			filtered = append(filtered, e)
		}
	}
	s.Scheduler.executors = filtered
	s.Scheduler.mu.Unlock()
}

// Nodes returns the currently registered node IDs.
func (s *SwarmCrew) Nodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.executors))
	for id := range s.executors {
		names = append(names, id)
	}
	return names
}
