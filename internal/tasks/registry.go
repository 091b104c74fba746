package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/devctl/internal/tools"
)

var (
	ErrTaskExists      = errors.New("task already exists")
	ErrTaskNil         = errors.New("task is nil")
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskCycle       = errors.New("task dependency cycle")
	ErrInvalidMetadata = errors.New("invalid task metadata")
)

// Registry stores tasks by stable identifier.
type Registry struct {
	items   map[string]*Task
	aliases map[string]string
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		items:   make(map[string]*Task),
		aliases: make(map[string]string),
	}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta TaskMetadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	for _, alias := range meta.Aliases {
		if !isValidID(alias) {
			return fmt.Errorf("%w: invalid alias format %q", ErrInvalidMetadata, alias)
		}
	}
	return nil
}

// Register adds a task and its aliases to the registry.
func (r *Registry) Register(task *Task) error {
	if task == nil || task.Run == nil {
		return ErrTaskNil
	}
	if err := ValidateMetadata(task.Meta); err != nil {
		return err
	}

	id := task.Meta.ID
	if r.taken(id) {
		return fmt.Errorf("%w: %s", ErrTaskExists, id)
	}
	for _, alias := range task.Meta.Aliases {
		if alias == id || r.taken(alias) {
			return fmt.Errorf("%w: alias %s", ErrTaskExists, alias)
		}
	}
	r.items[id] = task
	for _, alias := range task.Meta.Aliases {
		r.aliases[alias] = id
	}
	return nil
}

// Resolve returns a task by id or alias.
func (r *Registry) Resolve(id string) (*Task, bool) {
	if target, ok := r.aliases[id]; ok {
		id = target
	}
	task, ok := r.items[id]
	return task, ok
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []TaskMetadata {
	list := make([]TaskMetadata, 0, len(r.items))
	for _, task := range r.items {
		list = append(list, task.Meta)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Plan returns the tasks to run for id: pre-tasks depth-first in declared
// order, each at most once, then the task itself.
func (r *Registry) Plan(id string) ([]*Task, error) {
	var order []*Task
	done := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		task, ok := r.Resolve(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		key := task.Meta.ID
		if done[key] {
			return nil
		}
		path = append(path, key)
		if visiting[key] {
			return fmt.Errorf("%w: %s", ErrTaskCycle, strings.Join(path, " -> "))
		}
		visiting[key] = true
		for _, pre := range task.Pre {
			if err := visit(pre, path); err != nil {
				return err
			}
		}
		visiting[key] = false
		done[key] = true
		order = append(order, task)
		return nil
	}

	if err := visit(id, nil); err != nil {
		return nil, err
	}
	return order, nil
}

// Invoke runs the plan for id and always reports an Outcome. Pre-tasks run
// with no flags; args go to the requested task only.
func (r *Registry) Invoke(c *Context, id string, args Args) Outcome {
	start := time.Now()
	outcome := Outcome{Task: id}

	plan, err := r.Plan(id)
	if err != nil {
		outcome.Err = err
		outcome.ExitCode = tools.ExitCode(err)
		return outcome
	}
	outcome.Task = plan[len(plan)-1].Meta.ID

	for i, task := range plan {
		taskArgs := Args{}
		if i == len(plan)-1 && args != nil {
			taskArgs = args
		}
		c.Log.Info().Str("task", task.Meta.ID).Msg("task start")
		taskStart := time.Now()
		if err := task.Run(c, taskArgs); err != nil {
			outcome.Err = fmt.Errorf("%s: %w", task.Meta.ID, err)
			outcome.ExitCode = tools.ExitCode(err)
			outcome.Duration = time.Since(start)
			c.Log.Error().
				Str("task", task.Meta.ID).
				Int("exit_code", outcome.ExitCode).
				Dur("elapsed", outcome.Duration).
				Err(err).
				Msg("task failed")
			return outcome
		}
		c.Log.Info().Str("task", task.Meta.ID).Dur("elapsed", time.Since(taskStart)).Msg("task done")
	}
	outcome.Duration = time.Since(start)
	c.Log.Info().Str("task", outcome.Task).Dur("elapsed", outcome.Duration).Msg("invocation done")
	return outcome
}

func (r *Registry) taken(id string) bool {
	if _, ok := r.items[id]; ok {
		return true
	}
	_, ok := r.aliases[id]
	return ok
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
