package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// isInteractive reports whether both ends of the conversation are terminals.
func isInteractive(in io.Reader, out io.Writer) bool {
	return isTerminal(in) && isTerminal(out)
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type overwritePrompt struct {
	in  *bufio.Reader
	out io.Writer
}

func newOverwritePrompt(in io.Reader, out io.Writer) *overwritePrompt {
	return &overwritePrompt{in: bufio.NewReader(in), out: out}
}

// Confirm asks before replacing path. Anything but y/yes declines, as does EOF.
func (p *overwritePrompt) Confirm(path string) bool {
	fmt.Fprintf(p.out, "%s already exists. Overwrite? [y/N] ", path)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
