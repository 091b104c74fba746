package tools

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Exec runs p through r and applies the step policy in opts.
func Exec(ctx context.Context, r Runner, p Pipeline, opts RunOptions) (Result, error) {
	log.Debug().Str("cmd", p.String()).Bool("hide", opts.Hide).Msg("exec")
	res, err := r.Run(ctx, p, opts)
	if err == nil {
		return res, nil
	}
	var failure *CommandFailure
	if opts.Tolerate && errors.As(err, &failure) && ctx.Err() == nil {
		log.Warn().
			Str("cmd", p.String()).
			Int("exit_code", failure.ExitCode).
			Msg("tolerated command failure")
		return res, nil
	}
	return res, err
}

// Sh runs the stages as one pipeline and returns its trimmed stdout.
func Sh(ctx context.Context, r Runner, opts RunOptions, cmds ...Command) (string, error) {
	res, err := Exec(ctx, r, Pipe(cmds...), opts)
	if err != nil {
		return "", err
	}
	return res.Output(), nil
}
