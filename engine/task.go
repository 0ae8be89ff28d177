package engine

import "sync"

// TaskStatus is the internal lifecycle state of a Task (spec §3).
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskRunning  TaskStatus = "running"
	TaskComplete TaskStatus = "complete"
	TaskFailed   TaskStatus = "failed"
)

// TaskDependency names an upstream task and the context slot it must have
// populated before the dependent task may run (spec §3). Validity of the
// pair (source exists, result key matches) is checked by Builder.Validate,
// not at construction.
type TaskDependency struct {
	SourceTask string
	ResultKey  string
}

// Task is a named unit of work bound to an agent and a prompt template
// (spec §3). A Task is immutable in its declaration; only Status/Result are
// mutated, each at most once, and only by the scheduler/node that executes
// it — hence the private fields and the package-internal mutators below.
type Task struct {
	Name           string
	AgentName      string
	PromptTemplate string
	Dependencies   []TaskDependency
	ResultKey      string

	requiredVars []string // unique, first-seen order; computed once at construction

	mu     sync.Mutex
	status TaskStatus
	result string
	err    error
}

// NewTask constructs a task and fixes its required-variable set. A
// malformed template (unpaired braces) is rejected here, since spec §3
// states "the set of placeholder identifiers in the template is fixed at
// construction".
func NewTask(name, agentName, promptTemplate string, dependencies []TaskDependency, resultKey string) (*Task, error) {
	if err := ValidateTemplate(promptTemplate); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Task = name
		}
		return nil, err
	}
	deps := append([]TaskDependency(nil), dependencies...)
	return &Task{
		Name:           name,
		AgentName:      agentName,
		PromptTemplate: promptTemplate,
		Dependencies:   deps,
		ResultKey:      resultKey,
		requiredVars:   UniqueRequiredVars(promptTemplate),
		status:         TaskPending,
	}, nil
}

// RequiredVars returns the (deduplicated) placeholder identifiers fixed at
// construction time.
func (t *Task) RequiredVars() []string {
	return append([]string(nil), t.requiredVars...)
}

// DependenciesMet reports the graph-ordering half of readiness (spec §4.4):
// every dependency's result key must be present in ctx. This is what the
// scheduler's queue-rotation test uses; it deliberately ignores template
// variables that aren't backed by a dependency, matching how
// swarm/manager.py decided whether to rotate a task.
func (t *Task) DependenciesMet(ctx *ValueContext) bool {
	for _, dep := range t.Dependencies {
		if !ctx.Has(dep.ResultKey) {
			return false
		}
	}
	return true
}

// Ready reports the full readiness predicate from spec §4.2: dependencies
// met AND every template placeholder bound. This is what the local
// parallel-batch scheduler uses to pick a round's batch, mirroring
// core.py's Task.is_ready.
func (t *Task) Ready(ctx *ValueContext) bool {
	return t.DependenciesMet(ctx) && ctx.HasAll(t.requiredVars)
}

// Status returns the task's current lifecycle state.
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Result returns the task's produced value and any terminal error.
func (t *Task) Result() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

func (t *Task) markRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskRunning
}

func (t *Task) markComplete(result string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskComplete
	t.result = result
}

func (t *Task) markFailed(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskFailed
	t.err = err
}

// DependencyNames returns the source task names, in declaration order —
// used by the remote transport to populate a TaskMessage's dependency list
// (spec §6).
func (t *Task) DependencyNames() []string {
	names := make([]string, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		names = append(names, d.SourceTask)
	}
	return names
}
