package tools

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyPipeline = errors.New("empty pipeline")

// CommandFailure reports a pipeline that exited non-zero or could not start.
type CommandFailure struct {
	Command  string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
}

func (e *CommandFailure) Error() string {
	msg := fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Command)
	if detail := strings.TrimSpace(string(e.Stderr)); detail != "" {
		msg += ": " + firstLine(detail)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandFailure) Unwrap() error {
	return e.Err
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var failure *CommandFailure
	if errors.As(err, &failure) {
		if failure.ExitCode > 0 {
			return failure.ExitCode
		}
	}
	return 1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
