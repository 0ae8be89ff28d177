package config

import (
	"fmt"

	"github.com/lexcodex/swarmcrew/engine"
	"github.com/lexcodex/swarmcrew/llmagent"
)

// ToBuilder turns a parsed CrewFile into an engine.Builder, instantiating
// one concrete agent per AgentSpec and wiring every TaskSpec in. Node
// entries are not resolved here, so the built crew runs on the builder's
// single implicit local node; nothing in this module dials a node's
// address. cmd/crewctl's node subcommand reads a node entry only for its
// agent list.
func (f *CrewFile) ToBuilder() (*engine.Builder, error) {
	b := engine.NewBuilder(f.Name)

	for _, spec := range f.Agents {
		agent, err := buildAgent(spec)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		b.AddAgent(agent)
	}

	for key, value := range f.SharedContext {
		b.AddSharedContext(key, value)
	}

	for _, t := range f.Tasks {
		deps := make([]engine.TaskDependency, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			deps = append(deps, engine.TaskDependency{SourceTask: d.Task, ResultKey: d.ResultKey})
		}
		b.AddTask(t.Name, t.Agent, t.Prompt, deps, t.ResultKey)
	}

	return b, nil
}

// BuildAgentByName constructs the single agent declared under name,
// without building a whole Builder. Used by the node-serving CLI path,
// which hosts a subset of a crew file's agents on one remote node.
func (f *CrewFile) BuildAgentByName(name string) (engine.Agent, error) {
	for _, spec := range f.Agents {
		if spec.Name == name {
			return buildAgent(spec)
		}
	}
	return nil, fmt.Errorf("crew file has no agent named %q", name)
}

func buildAgent(spec AgentSpec) (engine.Agent, error) {
	switch spec.Backend {
	case "ollama", "":
		return llmagent.NewAgent(spec.Name, spec.Endpoint, spec.Model), nil
	default:
		return nil, fmt.Errorf("unknown agent backend %q", spec.Backend)
	}
}
