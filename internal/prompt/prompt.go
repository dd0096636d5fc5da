// Package prompt reads secrets from the operator.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// SecretPrompt asks for a secret and returns exactly what was entered.
// Empty input is a valid answer.
type SecretPrompt interface {
	Prompt(label string) (string, error)
}

// TerminalPrompt reads with echo disabled when In is a terminal. When In is
// a pipe or file it reads a single line instead, so the secret can be
// supplied non-interactively.
type TerminalPrompt struct {
	In  *os.File
	Out io.Writer
}

// NewTerminal returns a TerminalPrompt on stdin, printing the label to stderr.
func NewTerminal() *TerminalPrompt {
	return &TerminalPrompt{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompt) Prompt(label string) (string, error) {
	fmt.Fprint(p.Out, label)

	fd := int(p.In.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	fmt.Fprintln(p.Out)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Static answers every prompt with the same value.
type Static string

func (s Static) Prompt(string) (string, error) {
	return string(s), nil
}
