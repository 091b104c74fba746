package tasks

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/danmuck/devctl/internal/tools"
)

type rule struct {
	match  string
	stdout string
	code   int
}

type call struct {
	cmd      string
	dir      string
	opts     tools.RunOptions
	printed  string
	exitCode int
}

// scriptedRunner answers pipelines whose rendered form contains a rule's
// match. Unmatched pipelines go to fallback, or succeed empty when it is nil.
type scriptedRunner struct {
	mu       sync.Mutex
	rules    []rule
	fallback tools.Runner
	console  io.Writer
	printed  *bytes.Buffer
	calls    []call
}

func (s *scriptedRunner) Run(ctx context.Context, p tools.Pipeline, opts tools.RunOptions) (tools.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rendered := p.String()
	rec := call{cmd: rendered, opts: opts}
	if len(p) > 0 {
		rec.dir = p[0].Dir
	}
	if s.printed != nil {
		rec.printed = s.printed.String()
	}

	for _, r := range s.rules {
		if !strings.Contains(rendered, r.match) {
			continue
		}
		rec.exitCode = r.code
		s.calls = append(s.calls, rec)
		res := tools.Result{Stdout: []byte(r.stdout), ExitCode: r.code}
		if !opts.Hide && s.console != nil {
			_, _ = io.WriteString(s.console, r.stdout)
		}
		if r.code != 0 {
			return res, &tools.CommandFailure{Command: rendered, ExitCode: r.code, Stdout: res.Stdout}
		}
		return res, nil
	}

	s.calls = append(s.calls, rec)
	if s.fallback != nil {
		return s.fallback.Run(ctx, p, opts)
	}
	return tools.Result{}, nil
}

func (s *scriptedRunner) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.cmd)
	}
	return out
}

func (s *scriptedRunner) find(prefix string) (call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if strings.HasPrefix(c.cmd, prefix) {
			return c, true
		}
	}
	return call{}, false
}
