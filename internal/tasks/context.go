package tasks

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/danmuck/devctl/internal/config"
	"github.com/danmuck/devctl/internal/console"
	"github.com/danmuck/devctl/internal/tools"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context is the per-invocation handle a task body uses to run commands and
// print status lines. It is discarded when the invocation ends.
type Context struct {
	Runner tools.Runner
	Out    *console.Printer
	Config config.Config
	Dir    string
	Log    zerolog.Logger

	ctx context.Context
}

// ContextOptions are the inputs for NewContext. Zero values fall back to the
// host runner, stdout, default config and the global logger.
type ContextOptions struct {
	Runner tools.Runner
	Out    *console.Printer
	Config *config.Config
	Dir    string
	Logger *zerolog.Logger
}

func NewContext(ctx context.Context, opts ContextOptions) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		Runner: opts.Runner,
		Out:    opts.Out,
		Dir:    opts.Dir,
		Log:    log.Logger,
		ctx:    ctx,
	}
	if c.Out == nil {
		c.Out = console.NewStdout(false)
	}
	if c.Runner == nil {
		c.Runner = tools.ExecRunner{Stdout: c.Out.Writer()}
	}
	if opts.Config != nil {
		c.Config = *opts.Config
	} else {
		c.Config = config.Default()
	}
	if opts.Logger != nil {
		c.Log = *opts.Logger
	}
	return c
}

// Step is one external call with its failure policy.
type Step struct {
	Name     string
	Pipeline tools.Pipeline
	Options  tools.RunOptions
}

// Run executes cmds as one pipeline in the working directory.
func (c *Context) Run(opts tools.RunOptions, cmds ...tools.Command) (tools.Result, error) {
	return tools.Exec(c.ctx, c.Runner, tools.Pipe(cmds...).In(c.Dir), opts)
}

// Sh runs cmds hidden and returns trimmed stdout.
func (c *Context) Sh(cmds ...tools.Command) (string, error) {
	return tools.Sh(c.ctx, c.Runner, tools.DefaultRunOptions(), pinned(c.Dir, cmds)...)
}

// RunSteps runs steps in order and stops at the first fatal failure.
func (c *Context) RunSteps(steps ...Step) error {
	for _, step := range steps {
		c.Log.Debug().Str("step", step.Name).Msg("step")
		if _, err := tools.Exec(c.ctx, c.Runner, step.Pipeline.In(c.Dir), step.Options); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) Echo(message string, opts ...console.EchoOption) error {
	return c.Out.Echo(message, opts...)
}

// Glob expands pattern against the working directory and returns paths
// relative to it. With no match the literal pattern is returned, the way a
// POSIX shell leaves an unmatched glob in place.
func (c *Context) Glob(pattern string) ([]string, error) {
	base := c.Dir
	full := pattern
	if base != "" && !filepath.IsAbs(pattern) {
		full = filepath.Join(base, pattern)
	}
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []string{pattern}, nil
	}
	if base == "" || filepath.IsAbs(pattern) {
		return matches, nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(base, m)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}

func pinned(dir string, cmds []tools.Command) []tools.Command {
	return []tools.Command(tools.Pipe(cmds...).In(dir))
}

// toolCmd splits a configured tool such as "python -m pytest" into its
// program and leading arguments.
func toolCmd(tool string, args ...string) tools.Command {
	fields := strings.Fields(tool)
	if len(fields) == 0 {
		return tools.Cmd(tool, args...)
	}
	return tools.Cmd(fields[0], append(fields[1:], args...)...)
}

// toolName is the display name of a configured tool.
func toolName(tool string) string {
	fields := strings.Fields(tool)
	if len(fields) == 0 {
		return tool
	}
	return filepath.Base(fields[len(fields)-1])
}
