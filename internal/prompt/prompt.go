// Package prompt implements the interactive pieces of hcpctl: the host
// chooser and the purge confirmations. Every prompt runs as a small
// bubbletea program on the given input and output.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mattjoyce/hcpctl/internal/purge"
)

// ErrCanceled is returned when the operator leaves a chooser without
// picking anything.
var ErrCanceled = errors.New("prompt canceled")

// Prompter runs prompts on In and Out.
type Prompter struct {
	In    io.Reader
	Out   io.Writer
	Theme Theme
}

// New returns a Prompter on the process terminal.
func New() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr, Theme: NewDefaultTheme()}
}

// Interactive reports whether both ends of the prompt are terminals.
func Interactive(in, out *os.File) bool {
	return in != nil && out != nil &&
		term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// run drives m until it quits. A canceled ctx wins over the program's own
// error.
func (p *Prompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.In),
		tea.WithOutput(p.Out),
	)
	final, err := prog.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}

var (
	_ purge.RunConfirmer   = (*Prompter)(nil)
	_ purge.StateConfirmer = (*Prompter)(nil)
)
