package tools

import (
	"strings"
)

// Command is one argument vector. It is never interpreted by a shell.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Cmd builds a Command from a program name and its arguments.
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// In returns a copy of c that runs in dir.
func (c Command) In(dir string) Command {
	c.Dir = dir
	return c
}

func (c Command) String() string {
	return joinCommand(c.Name, c.Args)
}

// Pipeline chains stdout of each stage into stdin of the next.
type Pipeline []Command

// Pipe builds a Pipeline from its stages.
func Pipe(cmds ...Command) Pipeline {
	return Pipeline(cmds)
}

// In returns a copy of p with every stage pinned to dir unless a stage
// already names its own directory.
func (p Pipeline) In(dir string) Pipeline {
	out := make(Pipeline, len(p))
	for i, c := range p {
		if c.Dir == "" {
			c.Dir = dir
		}
		out[i] = c
	}
	return out
}

func (p Pipeline) String() string {
	parts := make([]string, 0, len(p))
	for _, c := range p {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " | ")
}

func joinCommand(cmd string, args []string) string {
	var builder strings.Builder
	builder.WriteString(shellQuote(cmd))
	for _, arg := range args {
		builder.WriteByte(' ')
		builder.WriteString(shellQuote(arg))
	}
	return builder.String()
}

// shellQuote renders value for display; plain words are left bare.
func shellQuote(value string) string {
	if value == "" {
		return "''"
	}
	if isPlainWord(value) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func isPlainWord(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("-_./=:,+@%", c) >= 0:
		default:
			return false
		}
	}
	return true
}
