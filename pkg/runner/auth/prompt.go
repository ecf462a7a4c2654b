package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for input on a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	r *bufio.Reader
}

func (p *Prompter) reader() *bufio.Reader {
	if p.r == nil {
		in := p.In
		if in == nil {
			in = os.Stdin
		}
		p.r = bufio.NewReader(in)
	}
	return p.r
}

// Line prints label and reads one line.
func (p *Prompter) Line(label string) (string, error) {
	_, _ = fmt.Fprintf(p.Out, "%s: ", label)
	line, err := p.reader().ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Secret reads a line without echo when In is a terminal.
func (p *Prompter) Secret(label string) (string, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprintf(p.Out, "%s: ", label)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	return p.Line(label)
}
