// Package purge implements the two destructive workspace workflows:
// draining a workspace's run queue and replacing its state with an empty
// one. Both are explicit state machines that report per-step outcomes
// rather than stopping at the first failure where that is safe.
package purge

import (
	"errors"
	"fmt"

	"github.com/mattjoyce/hcpctl/internal/tfe"
)

//go:generate mockgen -destination=mocks/mock_purge.go -package=mocks github.com/mattjoyce/hcpctl/internal/purge RunAPI,RunConfirmer,StateAPI,StateConfirmer

// State is a workflow step.
type State string

const (
	StateResolved   State = "resolved"
	StateListed     State = "listed"
	StateValidated  State = "validated"
	StateConfirmed  State = "confirmed"
	StateLocked     State = "locked"
	StateDraining   State = "draining"
	StateDownloaded State = "downloaded"
	StateReplaced   State = "replaced"
	StateUploaded   State = "uploaded"
	StateDone       State = "done"
	StateAborted    State = "aborted"
	StateFailed     State = "failed"
)

// ErrDeclined is returned by a confirmer when the operator says no.
var ErrDeclined = errors.New("declined by operator")

// UnknownStatusError reports a run whose status hcpctl cannot classify.
type UnknownStatusError struct {
	RunID  string
	Status tfe.RunStatus
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("run %s has unknown status %q; refusing to purge", e.RunID, e.Status)
}

// UnlockFailureError reports a workspace left locked. Cause is the error
// that ended the purge, if any.
type UnlockFailureError struct {
	WorkspaceID string
	Cause       error
	UnlockErr   error
}

func (e *UnlockFailureError) Error() string {
	msg := fmt.Sprintf("workspace %s is STILL LOCKED: %v; unlock it in the UI or with the API before running again", e.WorkspaceID, e.UnlockErr)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (purge failed first: %v)", e.Cause)
	}
	return msg
}

func (e *UnlockFailureError) Unwrap() []error {
	errs := []error{e.UnlockErr}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
