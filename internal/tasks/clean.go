package tasks

import (
	"github.com/danmuck/devctl/internal/config"
	"github.com/danmuck/devctl/internal/console"
	"github.com/danmuck/devctl/internal/tools"
)

const cleanBanner = "Cleaning the site, build, dist and all __pycache__ directories..."

func cleanTask() *Task {
	return &Task{
		Meta: TaskMetadata{
			ID:          "clean",
			Name:        "Clean",
			Description: "Remove bytecode caches and build output directories",
		},
		Flags: []FlagSpec{
			{Name: "docs", Description: "also remove the documentation build output"},
		},
		Run: runClean,
	}
}

func runClean(c *Context, args Args) error {
	docs, err := args.Bool("docs")
	if err != nil {
		return err
	}
	if err := c.Echo(cleanBanner, console.NoNewline()); err != nil {
		return err
	}
	if err := c.RunSteps(cleanSteps(c.Config, docs)...); err != nil {
		return err
	}
	return c.Echo("DONE", console.WithColor(console.Green))
}

// cleanSteps lists the removals in order. Cache cleanup is best effort; a
// failing build directory removal fails the task.
func cleanSteps(cfg config.Config, docs bool) []Step {
	steps := []Step{
		{
			Name: "pycache",
			Pipeline: tools.Pipe(tools.Cmd("find", cfg.SourceDir,
				"-type", "d", "-name", "__pycache__", "-prune",
				"-exec", "rm", "-rf", "{}", "+",
			)),
			Options: tools.RunOptions{Hide: true, Tolerate: true},
		},
		{
			Name:     "build-dirs",
			Pipeline: tools.Pipe(removeDirs(cfg.BuildDirs)),
			Options:  tools.DefaultRunOptions(),
		},
	}
	if docs && len(cfg.DocsBuildDirs) > 0 {
		steps = append(steps, Step{
			Name:     "docs-build-dirs",
			Pipeline: tools.Pipe(removeDirs(cfg.DocsBuildDirs)),
			Options:  tools.DefaultRunOptions(),
		})
	}
	return steps
}

func removeDirs(dirs []string) tools.Command {
	return tools.Cmd("rm", append([]string{"-rf"}, dirs...)...)
}
