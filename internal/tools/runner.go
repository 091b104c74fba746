package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// RunOptions is the per-step execution policy.
type RunOptions struct {
	// Hide suppresses mirroring subprocess output to the console.
	Hide bool
	// Tolerate turns a non-zero exit into a warning.
	Tolerate bool
}

// DefaultRunOptions hides subprocess output and fails on non-zero exit.
func DefaultRunOptions() RunOptions {
	return RunOptions{Hide: true}
}

// Result is the captured outcome of one pipeline run.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Output returns stdout with leading and trailing whitespace removed.
func (r Result) Output() string {
	return strings.TrimSpace(string(r.Stdout))
}

// Runner abstracts pipeline execution for task bodies.
type Runner interface {
	Run(ctx context.Context, p Pipeline, opts RunOptions) (Result, error)
}

// ExecRunner executes pipelines on the local host.
type ExecRunner struct {
	// Stdout and Stderr receive mirrored output when RunOptions.Hide is false.
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts every stage, wires the pipes and waits for all of them. The
// pipeline status is the status of the last stage.
func (r ExecRunner) Run(ctx context.Context, p Pipeline, opts RunOptions) (Result, error) {
	if len(p) == 0 {
		return Result{}, ErrEmptyPipeline
	}

	consoleOut, consoleErr := r.consoleWriters()
	cmds := make([]*exec.Cmd, len(p))
	stderrs := make([]bytes.Buffer, len(p))
	var stdout bytes.Buffer
	var parentEnds []*os.File

	for i, c := range p {
		cmd := exec.CommandContext(ctx, c.Name, c.Args...)
		cmd.Dir = c.Dir
		if opts.Hide {
			cmd.Stderr = &stderrs[i]
		} else {
			cmd.Stderr = io.MultiWriter(&stderrs[i], consoleErr)
		}
		cmds[i] = cmd
	}
	for i := 0; i < len(cmds)-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			closeAll(parentEnds)
			return Result{}, err
		}
		cmds[i].Stdout = pw
		cmds[i+1].Stdin = pr
		parentEnds = append(parentEnds, pr, pw)
	}
	last := cmds[len(cmds)-1]
	if opts.Hide {
		last.Stdout = &stdout
	} else {
		last.Stdout = io.MultiWriter(&stdout, consoleOut)
	}

	started := make([]bool, len(cmds))
	lastIdx := len(cmds) - 1
	for i, cmd := range cmds {
		err := cmd.Start()
		if err == nil {
			started[i] = true
			continue
		}
		ctxErr := ctx.Err()
		if i < lastIdx && ctxErr == nil {
			// Like sh: report the stage on its stderr and let the next
			// stage read EOF once the parent drops the pipe.
			fmt.Fprintf(cmd.Stderr, "%s: %v\n", p[i].Name, err)
			continue
		}
		closeAll(parentEnds)
		abort(cmds, started)
		code := 127
		if ctxErr != nil {
			code, err = -1, ctxErr
		}
		return Result{ExitCode: code}, &CommandFailure{
			Command:  p.String(),
			ExitCode: code,
			Err:      err,
		}
	}
	// Children hold their own copies; the parent must drop its ends so
	// readers see EOF when writers exit.
	closeAll(parentEnds)

	var lastErr error
	for i, cmd := range cmds {
		if !started[i] {
			continue
		}
		if err := cmd.Wait(); i == lastIdx {
			lastErr = err
		}
	}

	res := Result{
		Stdout: stdout.Bytes(),
		Stderr: joinStderr(stderrs),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, &CommandFailure{
			Command:  p.String(),
			ExitCode: -1,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Err:      ctxErr,
		}
	}
	if lastErr == nil {
		return res, nil
	}

	res.ExitCode = 1
	var exitErr *exec.ExitError
	if errors.As(lastErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	return res, &CommandFailure{
		Command:  p.String(),
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      lastErr,
	}
}

func (r ExecRunner) consoleWriters() (io.Writer, io.Writer) {
	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}
	errOut := r.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}
	// Several stages may write stderr concurrently.
	return out, &lockedWriter{w: errOut}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func abort(cmds []*exec.Cmd, started []bool) {
	for i, cmd := range cmds {
		if !started[i] {
			continue
		}
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

func joinStderr(bufs []bytes.Buffer) []byte {
	var out bytes.Buffer
	for i := range bufs {
		out.Write(bufs[i].Bytes())
	}
	return out.Bytes()
}
