package tfe

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrOutcomeUnknown marks a non-idempotent request that failed after it may
// have reached the server. It is not resent; the caller must assume the
// server may have acted on it.
var ErrOutcomeUnknown = errors.New("request outcome unknown")

// NotFoundError reports an absent remote resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// AuthorizationError reports a 401 or 403.
type AuthorizationError struct {
	Status   int
	Resource string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to access %s (HTTP %d); check the token and its permissions", e.Resource, e.Status)
}

// RateLimitError reports a 429 that persisted through every retry.
type RateLimitError struct {
	Resource   string
	RetryAfter time.Duration
	Attempts   int
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("rate limited on %s after %d attempts", e.Resource, e.Attempts)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (server asked to wait %s)", e.RetryAfter)
	}
	return msg
}

// ServerError reports a 5xx response.
type ServerError struct {
	Status   int
	Resource string
	Detail   string
}

func (e *ServerError) Error() string {
	msg := fmt.Sprintf("server error on %s (HTTP %d)", e.Resource, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// ClientError reports any other non-success status, such as 409 or 422.
type ClientError struct {
	Status   int
	Resource string
	Detail   string
}

func (e *ClientError) Error() string {
	msg := fmt.Sprintf("%s rejected (HTTP %d)", e.Resource, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// ValidationError reports input that failed a local check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// LockConflictError reports a workspace that is already locked.
type LockConflictError struct {
	WorkspaceID string
	Detail      string
}

func (e *LockConflictError) Error() string {
	msg := fmt.Sprintf("workspace %s is already locked", e.WorkspaceID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// PartialBatchError reports a batch where some keys failed. Succeeded lists
// the keys that completed.
type PartialBatchError struct {
	Operation string
	Succeeded []string
	Failed    map[string]error
}

func (e *PartialBatchError) Error() string {
	keys := e.FailedKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Failed[k]))
	}
	total := len(e.Succeeded) + len(e.Failed)
	return fmt.Sprintf("%s: %d of %d failed (%s)", e.Operation, len(e.Failed), total, strings.Join(parts, "; "))
}

// FailedKeys returns the failed keys in sorted order.
func (e *PartialBatchError) FailedKeys() []string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *PartialBatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, k := range e.FailedKeys() {
		errs = append(errs, e.Failed[k])
	}
	return errs
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
