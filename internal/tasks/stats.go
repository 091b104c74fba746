package tasks

import (
	"fmt"

	"github.com/danmuck/devctl/internal/tools"
)

func statsTask() *Task {
	return &Task{
		Meta: TaskMetadata{
			ID:          "stats",
			Name:        "Stats",
			Description: "Print code, docs, test and git statistics",
		},
		Pre: []string{"clean"},
		Run: runStats,
	}
}

// runStats prints every value as captured. Counts are never parsed.
func runStats(c *Context, _ Args) error {
	cfg := c.Config

	if err := c.Echo("*** Code ***"); err != nil {
		return err
	}
	if _, err := c.Run(tools.RunOptions{Hide: false},
		toolCmd(cfg.MetricsTool, "raw", "-s", cfg.SourceDir),
		tools.Cmd("tail", "-n", "6"),
	); err != nil {
		return err
	}

	if err := c.Echo("*** Docs ***"); err != nil {
		return err
	}
	docs, err := c.Glob(cfg.DocsGlob)
	if err != nil {
		return fmt.Errorf("docs glob %q: %w", cfg.DocsGlob, err)
	}
	lines, err := c.Sh(tools.Cmd("cat", docs...), tools.Cmd("wc", "-l"))
	if err != nil {
		return err
	}
	if err := c.Echo(fmt.Sprintf("    Markdown: %s lines", lines)); err != nil {
		return err
	}

	if err := c.Echo("*** Tests ***"); err != nil {
		return err
	}
	unit, err := countTests(c, cfg.UnitTestDir)
	if err != nil {
		return err
	}
	integration, err := countTests(c, cfg.IntegrationTestDir)
	if err != nil {
		return err
	}
	if err := c.Echo(fmt.Sprintf("    Unit Tests: %s", unit)); err != nil {
		return err
	}
	if err := c.Echo(fmt.Sprintf("    Integration Tests: %s", integration)); err != nil {
		return err
	}

	if err := c.Echo("*** Git ***"); err != nil {
		return err
	}
	commits, err := c.Sh(tools.Cmd("git", "rev-list", "--all", "--count"))
	if err != nil {
		return err
	}
	if err := c.Echo(fmt.Sprintf("    Number of commits: %s", commits)); err != nil {
		return err
	}
	authors, err := c.Sh(
		tools.Cmd("git", "log", "--format=%aN"),
		tools.Cmd("sort", "-u"),
		tools.Cmd("wc", "-l"),
	)
	if err != nil {
		return err
	}
	return c.Echo(fmt.Sprintf("    Number of authors: %s", authors))
}

func countTests(c *Context, dir string) (string, error) {
	return c.Sh(
		toolCmd(c.Config.TestCollector, dir, "--collect-only"),
		tools.Cmd("grep", c.Config.TestMarker),
		tools.Cmd("wc", "-l"),
	)
}
