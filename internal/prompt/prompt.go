// Package prompt asks the operator yes/no questions on a terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Terminal reads answers line by line from in and writes questions to out
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal prompter
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

type answer struct {
	line string
	err  error
}

// Confirm asks a yes/no question once. Only "y" and "yes" confirm; an empty
// answer returns def. EOF counts as no. A cancelled ctx returns false with
// the context error.
func (t *Terminal) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	if _, err := fmt.Fprintf(t.out, "? %s %s ", message, hint); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answers := make(chan answer, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	case a := <-answers:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("failed to read answer: %w", a.err)
		}
		if errors.Is(a.err, io.EOF) && a.line == "" {
			fmt.Fprintln(t.out)
			return false, nil
		}
		return parseAnswer(a.line, def), nil
	}
}

func parseAnswer(line string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def
	case "y", "yes":
		return true
	default:
		return false
	}
}
