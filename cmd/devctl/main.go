package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/devctl/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, &app{}, os.Args[1:])
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, a *app, args []string) int {
	root, err := newRootCmd(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devctl: %v\n", err)
		return 1
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "devctl: %v\n", err)
		if a.exitCode == 0 {
			return 1
		}
	}
	return a.exitCode
}
