package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/devctl/internal/testutil/testlog"
)

func TestShTrimsWhitespace(t *testing.T) {
	testlog.Start(t)
	cases := []string{
		"  padded  ",
		"\n\nleading newlines",
		"trailing newlines\n\n",
		"\t mixed \n",
	}
	for _, raw := range cases {
		out, err := Sh(context.Background(), ExecRunner{}, DefaultRunOptions(), Cmd("printf", "%s", raw))
		if err != nil {
			t.Fatalf("sh(%q): %v", raw, err)
		}
		if out != strings.TrimSpace(raw) {
			t.Fatalf("untrimmed output for %q: %q", raw, out)
		}
	}
}

func TestPipelineLineCount(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	var doc strings.Builder
	for i := 0; i < 42; i++ {
		doc.WriteString("line\n")
	}
	if err := os.WriteFile(filepath.Join(dir, "index.md"), []byte(doc.String()), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	out, err := Sh(context.Background(), ExecRunner{}, DefaultRunOptions(),
		Cmd("cat", "index.md").In(dir),
		Cmd("wc", "-l"),
	)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if out != "42" {
		t.Fatalf("unexpected line count: %q", out)
	}
}

func TestPipelineStatusIsLastStage(t *testing.T) {
	testlog.Start(t)
	// grep finds nothing and exits 1, but wc still succeeds.
	out, err := Sh(context.Background(), ExecRunner{}, DefaultRunOptions(),
		Cmd("printf", "alpha\nbeta\n"),
		Cmd("grep", "gamma"),
		Cmd("wc", "-l"),
	)
	if err != nil {
		t.Fatalf("expected success from last stage, got %v", err)
	}
	if out != "0" {
		t.Fatalf("unexpected count: %q", out)
	}
}

func TestPipelineMissingEarlierStage(t *testing.T) {
	testlog.Start(t)
	res, err := ExecRunner{}.Run(context.Background(),
		Pipe(
			Cmd("devctl-no-such-collector", "gitlint/", "--collect-only"),
			Cmd("grep", "TestCaseFunction"),
			Cmd("wc", "-l"),
		),
		DefaultRunOptions(),
	)
	if err != nil {
		t.Fatalf("missing earlier stage should not fail the pipeline: %v", err)
	}
	if res.Output() != "0" || res.ExitCode != 0 {
		t.Fatalf("unexpected result: output=%q exit=%d", res.Output(), res.ExitCode)
	}
	if !strings.Contains(string(res.Stderr), "devctl-no-such-collector") {
		t.Fatalf("start failure not reported on stderr: %q", res.Stderr)
	}

	// The last stage still decides the status.
	_, err = ExecRunner{}.Run(context.Background(),
		Pipe(Cmd("devctl-no-such-collector"), Cmd("devctl-no-such-counter")),
		DefaultRunOptions(),
	)
	if ExitCode(err) != 127 {
		t.Fatalf("missing last stage should exit 127, got %v", err)
	}
}

func TestRunNonZeroExitIsCommandFailure(t *testing.T) {
	testlog.Start(t)
	res, err := ExecRunner{}.Run(context.Background(),
		Pipe(Cmd("sh", "-c", "echo partial; echo broken >&2; exit 3")),
		DefaultRunOptions(),
	)
	var failure *CommandFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected CommandFailure, got %v", err)
	}
	if failure.ExitCode != 3 || res.ExitCode != 3 {
		t.Fatalf("unexpected exit codes: failure=%d result=%d", failure.ExitCode, res.ExitCode)
	}
	if strings.TrimSpace(string(failure.Stdout)) != "partial" {
		t.Fatalf("missing captured stdout: %q", failure.Stdout)
	}
	if !strings.Contains(failure.Error(), "broken") {
		t.Fatalf("stderr not in message: %q", failure.Error())
	}
	if ExitCode(err) != 3 {
		t.Fatalf("unexpected mapped exit code: %d", ExitCode(err))
	}
}

func TestRunMissingBinary(t *testing.T) {
	testlog.Start(t)
	_, err := ExecRunner{}.Run(context.Background(),
		Pipe(Cmd("devctl-no-such-binary")),
		DefaultRunOptions(),
	)
	if ExitCode(err) != 127 {
		t.Fatalf("expected exit 127, got %d (%v)", ExitCode(err), err)
	}
}

func TestRunEmptyPipeline(t *testing.T) {
	testlog.Start(t)
	if _, err := (ExecRunner{}).Run(context.Background(), nil, DefaultRunOptions()); !errors.Is(err, ErrEmptyPipeline) {
		t.Fatalf("expected ErrEmptyPipeline, got %v", err)
	}
}

func TestRunMirrorsOutputWhenNotHidden(t *testing.T) {
	testlog.Start(t)
	var console bytes.Buffer
	r := ExecRunner{Stdout: &console, Stderr: &console}

	res, err := r.Run(context.Background(), Pipe(Cmd("printf", "shown\n")), RunOptions{Hide: false})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if console.String() != "shown\n" {
		t.Fatalf("unexpected console output: %q", console.String())
	}
	if res.Output() != "shown" {
		t.Fatalf("output not captured: %q", res.Output())
	}

	console.Reset()
	if _, err := r.Run(context.Background(), Pipe(Cmd("printf", "quiet\n")), DefaultRunOptions()); err != nil {
		t.Fatalf("run hidden: %v", err)
	}
	if console.Len() != 0 {
		t.Fatalf("hidden run leaked output: %q", console.String())
	}
}

func TestRunCancelledContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExecRunner{}.Run(ctx, Pipe(Cmd("sleep", "5")), DefaultRunOptions())
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

type stubRunner struct {
	res Result
	err error
}

func (s stubRunner) Run(context.Context, Pipeline, RunOptions) (Result, error) {
	return s.res, s.err
}

func TestExecToleratePolicy(t *testing.T) {
	testlog.Start(t)
	failing := stubRunner{
		res: Result{ExitCode: 1},
		err: &CommandFailure{Command: "find src", ExitCode: 1},
	}

	if _, err := Exec(context.Background(), failing, Pipe(Cmd("find", "src")), RunOptions{Hide: true, Tolerate: true}); err != nil {
		t.Fatalf("tolerated step returned error: %v", err)
	}
	if _, err := Exec(context.Background(), failing, Pipe(Cmd("find", "src")), DefaultRunOptions()); ExitCode(err) != 1 {
		t.Fatalf("expected fatal failure, got %v", err)
	}

	// Tolerate only covers subprocess exits.
	other := stubRunner{err: errors.New("pipe setup failed")}
	if _, err := Exec(context.Background(), other, Pipe(Cmd("find")), RunOptions{Tolerate: true}); err == nil {
		t.Fatalf("expected non-command error to propagate")
	}
}

func TestExitCodeMapping(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("nil should map to 0")
	}
	if ExitCode(errors.New("boom")) != 1 {
		t.Fatalf("plain error should map to 1")
	}
	wrapped := errors.Join(errors.New("ctx"), &CommandFailure{ExitCode: 4})
	if ExitCode(wrapped) != 4 {
		t.Fatalf("wrapped failure should keep its code")
	}
	if ExitCode(&CommandFailure{ExitCode: -1}) != 1 {
		t.Fatalf("signal exit should map to 1")
	}
}

func TestCommandString(t *testing.T) {
	p := Pipe(
		Cmd("git", "log", "--format=%aN"),
		Cmd("grep", "two words", "it's"),
		Cmd("wc", "-l"),
	)
	want := `git log --format=%aN | grep 'two words' 'it'"'"'s' | wc -l`
	if got := p.String(); got != want {
		t.Fatalf("unexpected render\nwant: %s\ngot:  %s", want, got)
	}
	if Cmd("x", "").String() != "x ''" {
		t.Fatalf("empty arg should render quoted")
	}
}

func TestPipelineInKeepsExplicitDir(t *testing.T) {
	p := Pipe(Cmd("cat").In("/explicit"), Cmd("wc")).In("/work")
	if p[0].Dir != "/explicit" || p[1].Dir != "/work" {
		t.Fatalf("unexpected dirs: %q %q", p[0].Dir, p[1].Dir)
	}
}
