package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Task is one step of a scenario, executed by the handler registered for Type.
type Task struct {
	Name      string                 `yaml:"name"`
	Type      string                 `yaml:"type"`
	Params    map[string]interface{} `yaml:"params,omitempty"`
	DependsOn []string               `yaml:"depends_on,omitempty"`
	Timeout   time.Duration          `yaml:"timeout,omitempty"`
}

type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Tasks       []Task            `yaml:"tasks"`
	Variables   map[string]string `yaml:"variables,omitempty"`
}

type TaskResult struct {
	TaskName string
	Output   map[string]interface{}
	Error    error
	Duration time.Duration
}

type TaskHandler interface {
	Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)
}

// HandlerFunc adapts a function to TaskHandler.
type HandlerFunc func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)

func (f HandlerFunc) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	return f(ctx, params)
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks task names are set and unique and dependencies exist.
func (s *Scenario) Validate() error {
	if len(s.Tasks) == 0 {
		return fmt.Errorf("scenario %q has no tasks", s.Name)
	}
	names := make(map[string]bool, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task %d has no name", i)
		}
		if t.Type == "" {
			return fmt.Errorf("task %s has no type", t.Name)
		}
		if names[t.Name] {
			return fmt.Errorf("duplicate task name %s", t.Name)
		}
		names[t.Name] = true
	}
	for _, t := range s.Tasks {
		for _, dep := range t.DependsOn {
			if !names[dep] {
				return fmt.Errorf("task %s depends on unknown task %s", t.Name, dep)
			}
		}
	}
	return nil
}
