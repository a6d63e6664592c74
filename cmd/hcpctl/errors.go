package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/hcpctl/internal/credentials"
	"github.com/mattjoyce/hcpctl/internal/output"
	"github.com/mattjoyce/hcpctl/internal/purge"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitPartial     = 2
	exitLockHeld    = 3
	exitCredentials = 4
)

var lockHeldStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#D70000")).
	Padding(0, 1)

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var (
		unlockErr  *purge.UnlockFailureError
		credErr    *credentials.CredentialError
		partialErr *tfe.PartialBatchError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &unlockErr):
		return exitLockHeld
	case errors.As(err, &credErr):
		return exitCredentials
	case errors.As(err, &partialErr):
		return exitPartial
	default:
		return exitFailure
	}
}

// reportError prints err in the style its exit code calls for.
func reportError(w io.Writer, err error) int {
	code := exitCode(err)
	switch code {
	case exitPartial:
		output.Warn(w, "%v", err)
	case exitLockHeld:
		fmt.Fprintln(w, lockHeldStyle.Render("WORKSPACE STILL LOCKED"))
		fmt.Fprintf(w, "Error: %v\n", err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return code
}
