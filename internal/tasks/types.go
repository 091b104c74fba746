package tasks

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaskMetadata is the contract for task identity and display data.
type TaskMetadata struct {
	ID          string
	Name        string
	Description string
	Aliases     []string
}

// FlagSpec declares one boolean flag a task accepts.
type FlagSpec struct {
	Name        string
	Description string
}

// Args carries flag values for one invocation, keyed by flag name.
type Args map[string]string

// Bool reads a boolean flag; an absent flag is false.
func (a Args) Bool(name string) (bool, error) {
	raw, ok := a[name]
	if !ok || strings.TrimSpace(raw) == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("flag %s: %w", name, err)
	}
	return v, nil
}

// Task is one named unit of developer automation.
type Task struct {
	Meta  TaskMetadata
	Pre   []string
	Flags []FlagSpec
	Run   func(c *Context, args Args) error
}

// Outcome is what dispatch reports for every invocation.
type Outcome struct {
	Task     string
	ExitCode int
	Err      error
	Duration time.Duration
}

func (o Outcome) OK() bool {
	return o.Err == nil && o.ExitCode == 0
}
