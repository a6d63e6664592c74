// Package lock holds the two locks a destructive operation takes: the
// remote workspace lock, whose release is guaranteed through Handle, and a
// local file guard that stops two hcpctl processes from purging the same
// workspace at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

//go:generate mockgen -destination=mocks/mock_locker.go -package=mocks github.com/mattjoyce/hcpctl/internal/lock Locker

// ReleaseTimeout bounds the unlock request issued by Handle.Release.
const ReleaseTimeout = 30 * time.Second

// Locker is the remote lock API.
type Locker interface {
	LockWorkspace(ctx context.Context, workspaceID, reason string) error
	UnlockWorkspace(ctx context.Context, workspaceID string) error
}

// Handle owns an acquired workspace lock. Release it with a deferred call
// immediately after Acquire succeeds.
type Handle struct {
	locker      Locker
	workspaceID string
	logger      *slog.Logger

	once     sync.Once
	released bool
	err      error
}

// UncertainLockError reports a lock request that may have taken the lock
// even though no response arrived. Acquire has already sent an unlock to
// roll it back: Released is set when that unlock succeeded, UnlockErr when
// it failed and the lock may still be held.
type UncertainLockError struct {
	WorkspaceID string
	Err         error
	Released    bool
	UnlockErr   error
}

func (e *UncertainLockError) Error() string {
	msg := fmt.Sprintf("lock workspace %s: %v", e.WorkspaceID, e.Err)
	switch {
	case e.UnlockErr != nil:
		msg += fmt.Sprintf("; rollback unlock failed: %v", e.UnlockErr)
	case e.Released:
		msg += "; lock was taken and has been released"
	default:
		msg += "; lock was not taken"
	}
	return msg
}

func (e *UncertainLockError) Unwrap() []error {
	if e.UnlockErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.UnlockErr}
}

// Held reports whether the workspace may still be locked by this process.
func (e *UncertainLockError) Held() bool { return e.UnlockErr != nil }

// Acquire locks the workspace. A conflict surfaces as the locker's error
// (a *tfe.LockConflictError for the API client) and returns no handle.
// When the lock request's outcome is unknown (tfe.ErrOutcomeUnknown) the
// lock is rolled back and an *UncertainLockError is returned.
func Acquire(ctx context.Context, locker Locker, workspaceID, reason string) (*Handle, error) {
	logger := log.WithWorkspace(workspaceID).With("component", "lock")
	if err := locker.LockWorkspace(ctx, workspaceID, reason); err != nil {
		if !errors.Is(err, tfe.ErrOutcomeUnknown) {
			return nil, fmt.Errorf("lock workspace %s: %w", workspaceID, err)
		}
		logger.Warn("lock request outcome unknown; unlocking", "error", err)
		return nil, rollback(ctx, locker, workspaceID, err, logger)
	}
	logger.Info("workspace locked")
	return &Handle{locker: locker, workspaceID: workspaceID, logger: logger}, nil
}

// rollback unlocks after an uncertain lock request. A 409 means the
// workspace was not locked by us.
func rollback(ctx context.Context, locker Locker, workspaceID string, lockErr error, logger *slog.Logger) *UncertainLockError {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ReleaseTimeout)
	defer cancel()
	uerr := &UncertainLockError{WorkspaceID: workspaceID, Err: lockErr}
	err := locker.UnlockWorkspace(rctx, workspaceID)
	var ce *tfe.ClientError
	switch {
	case err == nil:
		uerr.Released = true
		logger.Info("workspace unlocked after uncertain lock")
	case errors.As(err, &ce) && ce.Status == http.StatusConflict:
		logger.Info("workspace was not locked by the uncertain request")
	default:
		uerr.UnlockErr = err
		logger.Error("workspace may be left locked", "error", err)
	}
	return uerr
}

// WorkspaceID returns the locked workspace.
func (h *Handle) WorkspaceID() string { return h.workspaceID }

// Release unlocks the workspace. Only the first call issues the request;
// later calls return its result. The request runs detached from ctx
// cancellation so an interrupted caller still unlocks. A nil handle is a
// no-op.
func (h *Handle) Release(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.once.Do(func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ReleaseTimeout)
		defer cancel()
		if err := h.locker.UnlockWorkspace(rctx, h.workspaceID); err != nil {
			h.err = fmt.Errorf("unlock workspace %s: %w", h.workspaceID, err)
			h.logger.Error("workspace left locked", "error", err)
			return
		}
		h.released = true
		h.logger.Info("workspace unlocked")
	})
	return h.err
}

// Released reports whether Release has unlocked the workspace.
func (h *Handle) Released() bool {
	return h != nil && h.released
}
