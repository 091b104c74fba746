package console

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Color is one of the fixed ANSI decorations used for status lines.
type Color int

const (
	None Color = iota
	Red
	Yellow
	Blue
	Green
)

const reset = "\033[0m"

// Escape returns the start sequence for c, or "" for None.
func (c Color) Escape() string {
	switch c {
	case Red:
		return "\033[31m"
	case Yellow:
		return "\033[33m"
	case Blue:
		return "\033[94m"
	case Green:
		return "\033[32m"
	default:
		return ""
	}
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Blue:
		return "blue"
	case Green:
		return "green"
	default:
		return "none"
	}
}

// Paint wraps message in c and the reset sequence.
func Paint(c Color, message string) string {
	if c == None {
		return message
	}
	return c.Escape() + message + reset
}

type echoConfig struct {
	newline bool
	color   Color
}

// EchoOption adjusts a single Echo call.
type EchoOption func(*echoConfig)

// NoNewline leaves the cursor on the current line.
func NoNewline() EchoOption {
	return func(c *echoConfig) { c.newline = false }
}

// WithColor decorates the message with c.
func WithColor(c Color) EchoOption {
	return func(cfg *echoConfig) { cfg.color = c }
}

// Printer writes status lines for tasks.
type Printer struct {
	out     io.Writer
	noColor bool
}

// New returns a Printer that writes to out with color enabled.
func New(out io.Writer) *Printer {
	return &Printer{out: out}
}

// NewStdout returns a Printer over stdout. Color is dropped when noColor is
// set, NO_COLOR is present, or stdout is not a terminal.
func NewStdout(noColor bool) *Printer {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		noColor = true
	}
	return &Printer{out: colorable.NewColorableStdout(), noColor: noColor}
}

// Writer exposes the underlying writer so subprocess output can share it.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Echo writes message, optionally colored and newline-terminated.
func (p *Printer) Echo(message string, opts ...EchoOption) error {
	cfg := echoConfig{newline: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !p.noColor {
		message = Paint(cfg.color, message)
	}
	if cfg.newline {
		message += "\n"
	}
	_, err := io.WriteString(p.out, message)
	return err
}
