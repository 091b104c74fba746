package tasks

import (
	"fmt"
	"strings"

	"github.com/danmuck/devctl/internal/config"
	"github.com/danmuck/devctl/internal/console"
	"github.com/danmuck/devctl/internal/tools"
)

func lintTask() *Task {
	return &Task{
		Meta: TaskMetadata{
			ID:          "pep8",
			Name:        "PEP8",
			Description: "Run the style checker over the source trees",
			Aliases:     []string{"lint"},
		},
		Run: runLint,
	}
}

// runLint reports a verdict and returns the checker's failure so its exit
// code becomes the process exit code.
func runLint(c *Context, _ Args) error {
	cfg := c.Config.Lint
	if err := c.Echo(fmt.Sprintf("Running %s...", toolName(cfg.Tool))); err != nil {
		return err
	}

	res, runErr := c.Run(tools.DefaultRunOptions(), lintCommand(cfg))
	if out := res.Output(); out != "" {
		if err := c.Echo(out); err != nil {
			return err
		}
	}
	if runErr != nil {
		if err := c.Echo("[FAIL]", console.WithColor(console.Red)); err != nil {
			return err
		}
		return runErr
	}
	return c.Echo("[PASS]", console.WithColor(console.Green))
}

func lintCommand(cfg config.Lint) tools.Command {
	args := make([]string, 0, 3+len(cfg.Paths))
	if len(cfg.Ignore) > 0 {
		args = append(args, "--ignore="+strings.Join(cfg.Ignore, ","))
	}
	args = append(args, fmt.Sprintf("--max-line-length=%d", cfg.MaxLineLength))
	if len(cfg.Exclude) > 0 {
		args = append(args, "--exclude="+strings.Join(cfg.Exclude, ","))
	}
	args = append(args, cfg.Paths...)
	return toolCmd(cfg.Tool, args...)
}
