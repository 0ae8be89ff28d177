package engine

import (
	"fmt"
	"sort"
	"strings"
)

// taskSpec is the builder's not-yet-constructed record of a task, kept
// separate from Task so validation can run before any Task (and its
// template-fixed-at-construction check) exists.
type taskSpec struct {
	name           string
	agentName      string
	promptTemplate string
	dependencies   []TaskDependency
	resultKey      string
}

// Builder is the fluent construction/validation façade from spec §4.6
// (ported from builder.py's CrewBuilder): accumulate agents, tasks, and
// shared context, then Validate and Build. Nothing is checked until
// Validate is called, so intermediate builder states can be invalid.
type Builder struct {
	name          string
	agents        map[string]Agent
	agentOrder    []string
	tasks         []*taskSpec
	sharedContext map[string]any
	executors     []Executor
}

// NewBuilder starts an empty builder for a crew named name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:          name,
		agents:        make(map[string]Agent),
		sharedContext: make(map[string]any),
	}
}

// AddAgent registers an agent handle under its own name, chainable.
func (b *Builder) AddAgent(agent Agent) *Builder {
	if _, exists := b.agents[agent.Name()]; !exists {
		b.agentOrder = append(b.agentOrder, agent.Name())
	}
	b.agents[agent.Name()] = agent
	return b
}

// AddTask registers a task specification, chainable. Dependencies refer to
// tasks by name; they need not already be added (Validate catches dangling
// references after all tasks are in).
func (b *Builder) AddTask(name, agentName, promptTemplate string, dependencies []TaskDependency, resultKey string) *Builder {
	b.tasks = append(b.tasks, &taskSpec{
		name:           name,
		agentName:      agentName,
		promptTemplate: promptTemplate,
		dependencies:   append([]TaskDependency(nil), dependencies...),
		resultKey:      resultKey,
	})
	return b
}

// AddSharedContext seeds the crew's result context with a pre-bound value,
// for inputs supplied by the caller rather than produced by a task.
func (b *Builder) AddSharedContext(key string, value any) *Builder {
	b.sharedContext[key] = value
	return b
}

// AddExecutor attaches a node (local or remote) to the crew's dispatch
// pool. If none is ever added, Build constructs a single local node
// spanning every registered agent.
func (b *Builder) AddExecutor(ex Executor) *Builder {
	b.executors = append(b.executors, ex)
	return b
}

// AddTaskChain adds a linear sequence of tasks where each depends on the
// previous task's result key, feeding it into the next task's template
// under the same key name (spec §4.6, builder.py's add_task_chain). Each
// element names an agent, a prompt template, and the result key it
// produces; dependencies are wired automatically.
type ChainStep struct {
	TaskName       string
	AgentName      string
	PromptTemplate string
	ResultKey      string
}

func (b *Builder) AddTaskChain(steps ...ChainStep) *Builder {
	var previous *ChainStep
	for _, step := range steps {
		step := step
		var deps []TaskDependency
		if previous != nil {
			deps = []TaskDependency{{SourceTask: previous.TaskName, ResultKey: previous.ResultKey}}
		}
		b.AddTask(step.TaskName, step.AgentName, step.PromptTemplate, deps, step.ResultKey)
		previous = &step
	}
	return b
}

// nodeColor is used by the DFS cycle detector: white (unvisited), grey (on
// the current recursion stack), black (fully explored).
type nodeColor int

const (
	white nodeColor = iota
	grey
	black
)

// Validate runs every structural check from spec §4.6/§7: unknown agent
// references, dangling dependencies, duplicate or mismatched result keys,
// and dependency cycles (via grey/black DFS, ported from builder.py's
// validate_crew). It returns the first violation found; callers that want
// every violation should call it repeatedly after fixing each one, as the
// original does not collect a multi-error report either.
func (b *Builder) Validate() error {
	byName := make(map[string]*taskSpec, len(b.tasks))
	resultKeyOwner := make(map[string]string)

	for _, t := range b.tasks {
		if _, dup := byName[t.name]; dup {
			return &ValidationError{Kind: ValidationDuplicateTaskName, Task: t.name, Detail: "task name declared more than once"}
		}
		byName[t.name] = t

		if t.agentName != "" {
			if _, ok := b.agents[t.agentName]; !ok {
				return &ValidationError{Kind: ValidationUnknownAgent, Task: t.name, Detail: fmt.Sprintf("references unknown agent %q", t.agentName)}
			}
		}

		if t.resultKey != "" {
			if owner, exists := resultKeyOwner[t.resultKey]; exists {
				return &ValidationError{Kind: ValidationDuplicateResultKey, Task: t.name, Detail: fmt.Sprintf("result key %q already produced by task %s", t.resultKey, owner)}
			}
			resultKeyOwner[t.resultKey] = t.name
		}
	}

	for _, t := range b.tasks {
		for _, dep := range t.dependencies {
			source, ok := byName[dep.SourceTask]
			if !ok {
				return &ValidationError{Kind: ValidationDanglingDependency, Task: t.name, Detail: fmt.Sprintf("depends on undeclared task %q", dep.SourceTask)}
			}
			if source.resultKey != dep.ResultKey {
				return &ValidationError{Kind: ValidationMismatchedResult, Task: t.name, Detail: fmt.Sprintf("expects result key %q from task %s, which produces %q", dep.ResultKey, source.name, source.resultKey)}
			}
		}
	}

	colors := make(map[string]nodeColor, len(b.tasks))
	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case black:
			return nil
		case grey:
			return &ValidationError{Kind: ValidationCycle, Task: name, Detail: "task participates in a dependency cycle"}
		}
		colors[name] = grey
		for _, dep := range byName[name].dependencies {
			if err := visit(dep.SourceTask); err != nil {
				return err
			}
		}
		colors[name] = black
		return nil
	}
	for _, t := range b.tasks {
		if err := visit(t.name); err != nil {
			return err
		}
	}

	return nil
}

// Build validates and constructs a ready-to-run Crew. The scheduler uses the
// default SchedulerConfig; a telemetry sink can be attached after Build via
// crew.Scheduler.SetTelemetry.
func (b *Builder) Build() (*Crew, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, len(b.tasks))
	for _, spec := range b.tasks {
		task, err := NewTask(spec.name, spec.agentName, spec.promptTemplate, spec.dependencies, spec.resultKey)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	executors := b.executors
	if len(executors) == 0 {
		agents := make([]Agent, 0, len(b.agentOrder))
		for _, name := range b.agentOrder {
			agents = append(agents, b.agents[name])
		}
		executors = []Executor{NewNode(b.name+"-local", NewAgentTable(agents...))}
	}

	valueCtx := NewValueContext(b.sharedContext)
	scheduler := NewScheduler(tasks, executors, valueCtx, nil, SchedulerConfig{})

	return &Crew{
		Name:      b.name,
		Tasks:     tasks,
		Context:   valueCtx,
		Scheduler: scheduler,
	}, nil
}

// Describe renders a plain-text tree of the crew-in-progress: agents, then
// tasks with their dependencies and result keys. This is the supplemental
// feature ported from builder.py's print_crew — a debugging aid, not the
// out-of-scope graph visualization (spec §7 Non-goals names only rendered
// diagrams/UIs; a text listing of declared structure is not that).
func (b *Builder) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "crew %q\n", b.name)

	fmt.Fprintf(&sb, "agents (%d):\n", len(b.agentOrder))
	names := append([]string(nil), b.agentOrder...)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "  - %s\n", name)
	}

	fmt.Fprintf(&sb, "tasks (%d):\n", len(b.tasks))
	for _, t := range b.tasks {
		fmt.Fprintf(&sb, "  - %s [agent=%s]", t.name, t.agentName)
		if t.resultKey != "" {
			fmt.Fprintf(&sb, " -> %s", t.resultKey)
		}
		if len(t.dependencies) > 0 {
			deps := make([]string, len(t.dependencies))
			for i, d := range t.dependencies {
				deps[i] = d.SourceTask
			}
			fmt.Fprintf(&sb, " (depends on %s)", strings.Join(deps, ", "))
		}
		sb.WriteString("\n")
	}

	if len(b.sharedContext) > 0 {
		keys := make([]string, 0, len(b.sharedContext))
		for k := range b.sharedContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&sb, "shared context: %s\n", strings.Join(keys, ", "))
	}

	return sb.String()
}
