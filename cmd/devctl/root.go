package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/danmuck/devctl/internal/config"
	"github.com/danmuck/devctl/internal/console"
	"github.com/danmuck/devctl/internal/tasks"
	"github.com/danmuck/devctl/internal/tools"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	dir        string
	noColor    bool

	// out and runner replace stdout and the host runner when set.
	out      io.Writer
	runner   tools.Runner
	exitCode int
}

func newRootCmd(a *app) (*cobra.Command, error) {
	registry, err := tasks.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "devctl",
		Short: "Developer task runner",
		Long: `devctl runs repository chores: cleaning build output, printing
code/docs/test/git statistics, and running the style checker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default <dir>/"+config.DefaultPath+")")
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "directory to run tasks in")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	for _, meta := range registry.ListMetadata() {
		task, _ := registry.Resolve(meta.ID)
		root.AddCommand(taskCmd(a, registry, task))
	}
	root.AddCommand(listCmd(registry))
	return root, nil
}

func taskCmd(a *app, registry *tasks.Registry, task *tasks.Task) *cobra.Command {
	flags := make(map[string]*bool, len(task.Flags))
	cmd := &cobra.Command{
		Use:     task.Meta.ID,
		Aliases: task.Meta.Aliases,
		Short:   task.Meta.Description,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.taskContext(cmd)
			if err != nil {
				return err
			}
			args := tasks.Args{}
			for name, v := range flags {
				if cmd.Flags().Changed(name) {
					args[name] = fmt.Sprint(*v)
				}
			}
			outcome := registry.Invoke(c, task.Meta.ID, args)
			a.exitCode = outcome.ExitCode
			return outcome.Err
		},
	}
	for _, f := range task.Flags {
		flags[f.Name] = cmd.Flags().Bool(f.Name, false, f.Description)
	}
	return cmd
}

func listCmd(registry *tasks.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, meta := range registry.ListMetadata() {
				task, _ := registry.Resolve(meta.ID)
				line := fmt.Sprintf("%-8s %s", meta.ID, meta.Description)
				if len(meta.Aliases) > 0 {
					line += fmt.Sprintf(" (aliases: %s)", strings.Join(meta.Aliases, ", "))
				}
				if len(task.Pre) > 0 {
					line += fmt.Sprintf(" [runs: %s]", strings.Join(task.Pre, ", "))
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// loadDotenv reads <dir>/.env without overriding variables already set. A
// missing file is not an error.
func loadDotenv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// taskContext loads config and builds the execution context for one run. An
// explicit --config must exist; the default path is optional.
func (a *app) taskContext(cmd *cobra.Command) (*tasks.Context, error) {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return nil, err
	}
	if err := loadDotenv(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("skipping .env")
	}
	path := a.configPath
	required := cmd.Flags().Changed("config")
	if path == "" {
		path = filepath.Join(dir, config.DefaultPath)
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	var printer *console.Printer
	if a.out != nil {
		printer = console.New(a.out)
	} else {
		printer = console.NewStdout(a.noColor || cfg.NoColor)
	}
	return tasks.NewContext(cmd.Context(), tasks.ContextOptions{
		Runner: a.runner,
		Out:    printer,
		Config: &cfg,
		Dir:    dir,
	}), nil
}
