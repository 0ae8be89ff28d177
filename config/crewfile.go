// Package config loads crew definitions from YAML files, following the
// kind-tagged manifest convention the teacher repo uses for its agent
// definitions (framework/agent_def.go's LoadAgentDefinition): peek a `kind`
// header before committing to a full unmarshal, so a file of the wrong
// kind fails fast with a typed error instead of silently parsing into the
// wrong shape.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotCrewFile is returned when a file's kind header does not say
// "Crew".
var ErrNotCrewFile = errors.New("not a crew definition")

// AgentSpec declares one agent entry in a crew file. Exactly one backend
// field should be set; Backend names which.
type AgentSpec struct {
	Name     string `yaml:"name"`
	Backend  string `yaml:"backend"` // e.g. "ollama"
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// TaskDependencySpec mirrors engine.TaskDependency in YAML form.
type TaskDependencySpec struct {
	Task      string `yaml:"task"`
	ResultKey string `yaml:"result_key"`
}

// TaskSpec declares one task entry in a crew file.
type TaskSpec struct {
	Name         string               `yaml:"name"`
	Agent        string               `yaml:"agent"`
	Prompt       string               `yaml:"prompt"`
	ResultKey    string               `yaml:"result_key,omitempty"`
	Dependencies []TaskDependencySpec `yaml:"dependencies,omitempty"`
}

// NodeSpec declares a remote node's address and the agents it is expected
// to host, for crews that dispatch over the transport.
type NodeSpec struct {
	ID      string   `yaml:"id"`
	Address string   `yaml:"address"`
	Agents  []string `yaml:"agents,omitempty"`
}

// CrewFile is the top-level shape of a crew definition document.
type CrewFile struct {
	Kind          string         `yaml:"kind"`
	Name          string         `yaml:"name"`
	Agents        []AgentSpec    `yaml:"agents"`
	Tasks         []TaskSpec     `yaml:"tasks"`
	SharedContext map[string]any `yaml:"shared_context,omitempty"`
	Nodes         []NodeSpec     `yaml:"nodes,omitempty"`
}

// LoadCrewFile reads and parses a crew definition from path. A file
// declaring a kind other than "Crew" is rejected with ErrNotCrewFile; a
// missing kind header is accepted for backward-compatible bare crew files.
func LoadCrewFile(path string) (*CrewFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var header struct {
		Kind string `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, err
	}
	if header.Kind != "" && !strings.EqualFold(header.Kind, "Crew") {
		return nil, ErrNotCrewFile
	}

	var file CrewFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("crew file invalid: %w", err)
	}
	return &file, nil
}

// validate checks the shape of the loaded document (not its dependency
// structure — that is Builder.Validate's job once the file is turned into
// a Builder).
func (f *CrewFile) validate() error {
	if f.Name == "" {
		return errors.New("crew file missing name")
	}
	if len(f.Tasks) == 0 {
		return errors.New("crew file declares no tasks")
	}
	for _, a := range f.Agents {
		if a.Name == "" {
			return errors.New("agent entry missing name")
		}
		if a.Backend == "" {
			return fmt.Errorf("agent %s missing backend", a.Name)
		}
	}
	for _, t := range f.Tasks {
		if t.Name == "" {
			return errors.New("task entry missing name")
		}
		if t.Agent == "" {
			return fmt.Errorf("task %s missing agent", t.Name)
		}
	}
	return nil
}
