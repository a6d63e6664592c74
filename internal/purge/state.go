package purge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mattjoyce/hcpctl/internal/lock"
	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/observability"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// LockReason is sent with the workspace lock request.
const LockReason = "hcpctl: purging state"

// StateAPI is the slice of the API a state purge needs.
type StateAPI interface {
	lock.Locker
	GetWorkspace(ctx context.Context, id string) (*tfe.Workspace, error)
	GetCurrentStateVersion(ctx context.Context, workspaceID string) (*tfe.StateVersion, error)
	DownloadState(ctx context.Context, downloadURL string) ([]byte, error)
	UploadState(ctx context.Context, workspaceID string, state *tfe.StateFile) (*tfe.StateVersion, error)
}

// StateConfirmer asks the operator to re-type the workspace id. It
// returns what was typed, or ErrDeclined.
type StateConfirmer interface {
	ConfirmStatePurge(ctx context.Context, ws *tfe.Workspace, sv *tfe.StateVersion) (string, error)
}

// Outcome is how a state purge ended.
type Outcome string

const (
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeNothingToPurge   Outcome = "nothing_to_purge"
	OutcomeAborted          Outcome = "aborted"
	OutcomeFailedBeforeLock Outcome = "failed_before_lock"
	OutcomeFailedUnlocked   Outcome = "failed_unlocked"
	OutcomeLockHeld         Outcome = "lock_held"
)

// StatePurgeResult describes a finished state purge. Backup holds the
// downloaded pre-purge state once step Downloaded is reached.
type StatePurgeResult struct {
	State        State
	Outcome      Outcome
	Workspace    *tfe.Workspace
	StateVersion *tfe.StateVersion
	LockTaken    bool
	LockReleased bool
	Lineage      string
	OldSerial    int
	NewSerial    int
	Backup       []byte
}

// StatePurger replaces a workspace's state with an empty one of the same
// lineage.
type StatePurger struct {
	api       StateAPI
	confirmer StateConfirmer
	logger    *slog.Logger
}

// NewStatePurger builds a StatePurger. There is no batch bypass: confirmer
// is required.
func NewStatePurger(api StateAPI, confirmer StateConfirmer) *StatePurger {
	return &StatePurger{api: api, confirmer: confirmer, logger: log.WithComponent("purge")}
}

// Purge runs the workflow against an exact workspace id. Once the lock is
// taken, the unlock request is issued on every path and the workflow no
// longer observes ctx cancellation. A failed unlock is returned as
// *UnlockFailureError with Outcome LockHeld.
func (p *StatePurger) Purge(ctx context.Context, workspaceID string) (res *StatePurgeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "purge.state", attribute.String("hcpctl.workspace_id", workspaceID))
	defer func() { observability.EndSpan(span, err) }()

	res = &StatePurgeResult{State: StateFailed, Outcome: OutcomeFailedBeforeLock}
	logger := p.logger.With("workspace_id", workspaceID)

	if !strings.HasPrefix(workspaceID, tfe.WorkspaceIDPrefix) {
		return res, &tfe.ValidationError{
			Field:   "workspace",
			Message: fmt.Sprintf("%q is not a workspace id; state purge needs the exact ws- id", workspaceID),
		}
	}
	ws, err := p.api.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return res, err
	}
	res.Workspace = ws
	res.State = StateResolved

	if ws.Attributes.ResourceCount == 0 {
		res.State = StateDone
		res.Outcome = OutcomeNothingToPurge
		logger.Info("workspace has no resources; nothing to purge")
		return res, nil
	}
	sv, err := p.api.GetCurrentStateVersion(ctx, workspaceID)
	if err != nil {
		return res, err
	}
	res.StateVersion = sv
	res.Lineage = sv.Attributes.Lineage
	res.OldSerial = sv.Attributes.Serial
	if sv.Attributes.HostedStateDownloadURL == "" {
		return res, fmt.Errorf("current state version %s of workspace %s has no download URL", sv.ID, workspaceID)
	}
	res.State = StateValidated

	typed, err := p.confirmer.ConfirmStatePurge(ctx, ws, sv)
	if errors.Is(err, ErrDeclined) {
		res.State = StateAborted
		res.Outcome = OutcomeAborted
		logger.Info("state purge declined")
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(typed) != workspaceID {
		res.State = StateAborted
		res.Outcome = OutcomeAborted
		return res, &tfe.ValidationError{
			Field:   "confirmation",
			Message: fmt.Sprintf("typed %q does not match workspace id %s", strings.TrimSpace(typed), workspaceID),
		}
	}
	res.State = StateConfirmed

	mctx := context.WithoutCancel(ctx)
	handle, err := lock.Acquire(mctx, p.api, workspaceID, LockReason)
	var uncertain *lock.UncertainLockError
	switch {
	case errors.As(err, &uncertain):
		res.State = StateFailed
		res.LockTaken = uncertain.Released || uncertain.Held()
		res.LockReleased = uncertain.Released
		if uncertain.Held() {
			res.Outcome = OutcomeLockHeld
			return res, &UnlockFailureError{WorkspaceID: workspaceID, Cause: uncertain.Err, UnlockErr: uncertain.UnlockErr}
		}
		if uncertain.Released {
			res.Outcome = OutcomeFailedUnlocked
		}
		return res, err
	case err != nil:
		return res, err
	}
	res.LockTaken = true
	res.State = StateLocked
	defer func() { _ = handle.Release(mctx) }()

	purgeErr := p.replace(mctx, workspaceID, res)

	unlockErr := handle.Release(mctx)
	res.LockReleased = handle.Released()
	switch {
	case unlockErr != nil:
		res.State = StateFailed
		res.Outcome = OutcomeLockHeld
		return res, &UnlockFailureError{WorkspaceID: workspaceID, Cause: purgeErr, UnlockErr: unlockErr}
	case purgeErr != nil:
		res.State = StateFailed
		res.Outcome = OutcomeFailedUnlocked
		return res, fmt.Errorf("%w (workspace unlocked)", purgeErr)
	}
	res.State = StateDone
	res.Outcome = OutcomeSucceeded
	logger.Info("state purged", "lineage", res.Lineage, "serial", res.NewSerial)
	return res, nil
}

// replace downloads the current state and uploads an empty successor.
func (p *StatePurger) replace(ctx context.Context, workspaceID string, res *StatePurgeResult) error {
	body, err := p.api.DownloadState(ctx, res.StateVersion.Attributes.HostedStateDownloadURL)
	if err != nil {
		return err
	}
	res.Backup = body
	res.State = StateDownloaded

	var current tfe.StateFile
	if err := json.Unmarshal(body, &current); err != nil {
		return fmt.Errorf("parse state of workspace %s: %w", workspaceID, err)
	}
	if current.Lineage == "" {
		return fmt.Errorf("state of workspace %s has no lineage", workspaceID)
	}
	res.Lineage = current.Lineage
	res.OldSerial = current.Serial

	empty := EmptyState(&current)
	res.NewSerial = empty.Serial
	res.State = StateReplaced

	if _, err := p.api.UploadState(ctx, workspaceID, empty); err != nil {
		return err
	}
	res.State = StateUploaded
	return nil
}

// EmptyState returns the successor of current with no resources or
// outputs.
func EmptyState(current *tfe.StateFile) *tfe.StateFile {
	version := current.Version
	if version == 0 {
		version = 4
	}
	return &tfe.StateFile{
		Version:          version,
		TerraformVersion: current.TerraformVersion,
		Serial:           current.Serial + 1,
		Lineage:          current.Lineage,
		Outputs:          json.RawMessage(`{}`),
		Resources:        []json.RawMessage{},
	}
}
