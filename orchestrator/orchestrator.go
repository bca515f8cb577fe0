package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrCircularDependency = errors.New("circular dependency between tasks")

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.\-]+)\}`)

type Orchestrator struct {
	handlers map[string]TaskHandler
	mu       sync.RWMutex
	log      *zap.Logger
}

func New(log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		handlers: make(map[string]TaskHandler),
		log:      log,
	}
}

// Register binds a task type to its handler, replacing any previous one.
func (o *Orchestrator) Register(taskType string, h TaskHandler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers[taskType] = h
}

// Types returns the registered task types, sorted.
func (o *Orchestrator) Types() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	types := make([]string, 0, len(o.handlers))
	for t := range o.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (o *Orchestrator) handler(taskType string) (TaskHandler, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	h, ok := o.handlers[taskType]
	return h, ok
}

// Run executes the scenario tasks in dependency order and stops at the first
// failure. The results of the tasks that ran are returned either way.
func (o *Orchestrator) Run(ctx context.Context, s *Scenario) ([]TaskResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	for _, t := range s.Tasks {
		if _, ok := o.handler(t.Type); !ok {
			return nil, fmt.Errorf("task %s: no handler for type %s (known: %s)", t.Name, t.Type, strings.Join(o.Types(), ", "))
		}
	}
	order, err := Order(s.Tasks)
	if err != nil {
		return nil, err
	}

	o.log.Info("running scenario", zap.String("scenario", s.Name), zap.Int("tasks", len(order)))

	outputs := make(map[string]map[string]interface{}, len(order))
	results := make([]TaskResult, 0, len(order))
	for _, t := range order {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := o.runTask(ctx, t, s.Variables, outputs)
		results = append(results, res)
		if res.Error != nil {
			return results, fmt.Errorf("task %s failed: %w", t.Name, res.Error)
		}
		outputs[t.Name] = res.Output
	}
	return results, nil
}

func (o *Orchestrator) runTask(ctx context.Context, t Task, vars map[string]string, outputs map[string]map[string]interface{}) TaskResult {
	start := time.Now()
	res := TaskResult{TaskName: t.Name}

	params, err := Substitute(t.Params, vars, outputs)
	if err != nil {
		res.Error = err
		return res
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	h, _ := o.handler(t.Type)
	o.log.Debug("task started", zap.String("task", t.Name), zap.String("type", t.Type))
	res.Output, res.Error = h.Execute(ctx, params)
	res.Duration = time.Since(start)
	if res.Output == nil {
		res.Output = map[string]interface{}{}
	}
	o.log.Info("task finished",
		zap.String("task", t.Name),
		zap.Duration("duration", res.Duration),
		zap.Error(res.Error))
	return res
}

// Order sorts tasks so every task follows its dependencies. Independent tasks
// keep their declaration order.
func Order(tasks []Task) ([]Task, error) {
	done := make(map[string]bool, len(tasks))
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.Name] = true
	}

	var order []Task
	for len(order) < len(tasks) {
		progress := false
		for _, t := range tasks {
			if done[t.Name] {
				continue
			}
			ready := true
			for _, dep := range t.DependsOn {
				if !known[dep] {
					return nil, fmt.Errorf("task %s depends on unknown task %s", t.Name, dep)
				}
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, t)
				done[t.Name] = true
				progress = true
			}
		}
		if !progress {
			var pending []string
			for _, t := range tasks {
				if !done[t.Name] {
					pending = append(pending, t.Name)
				}
			}
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(pending, ", "))
		}
	}
	return order, nil
}

// Substitute replaces ${var} with scenario variables and ${task.key} with the
// output of an earlier task. A string that is exactly one placeholder takes the
// referenced value unchanged.
func Substitute(params map[string]interface{}, vars map[string]string, outputs map[string]map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		r, err := substituteValue(v, vars, outputs)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		out[k] = r
	}
	return out, nil
}

func substituteValue(v interface{}, vars map[string]string, outputs map[string]map[string]interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		return substituteString(x, vars, outputs)
	case []interface{}:
		list := make([]interface{}, len(x))
		for i, e := range x {
			r, err := substituteValue(e, vars, outputs)
			if err != nil {
				return nil, err
			}
			list[i] = r
		}
		return list, nil
	case map[string]interface{}:
		return Substitute(x, vars, outputs)
	default:
		return v, nil
	}
}

func substituteString(s string, vars map[string]string, outputs map[string]map[string]interface{}) (interface{}, error) {
	if m := placeholder.FindStringSubmatch(s); m != nil && m[0] == s {
		return lookup(m[1], vars, outputs)
	}

	var firstErr error
	replaced := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		v, err := lookup(name, vars, outputs)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return fmt.Sprint(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return replaced, nil
}

func lookup(name string, vars map[string]string, outputs map[string]map[string]interface{}) (interface{}, error) {
	if v, ok := vars[name]; ok {
		return v, nil
	}
	if task, key, ok := strings.Cut(name, "."); ok {
		out, ran := outputs[task]
		if !ran {
			return nil, fmt.Errorf("${%s}: task %s has not run", name, task)
		}
		v, ok := out[key]
		if !ok {
			return nil, fmt.Errorf("${%s}: task %s has no output %s", name, task, key)
		}
		return v, nil
	}
	return nil, fmt.Errorf("undefined variable ${%s}", name)
}
