package purge

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/observability"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// RunAPI is the slice of the API a run purge needs.
type RunAPI interface {
	ResolveWorkspace(ctx context.Context, target, org string) (*tfe.Workspace, error)
	ListRuns(ctx context.Context, workspaceID, statusGroup string) ([]tfe.Run, error)
	GetRun(ctx context.Context, runID string) (*tfe.Run, error)
	CancelRun(ctx context.Context, runID, comment string) error
	DiscardRun(ctx context.Context, runID, comment string) error
}

// RunConfirmer asks the operator to approve a plan.
type RunConfirmer interface {
	ConfirmRunPurge(ctx context.Context, plan *RunPlan) (bool, error)
}

// Action is what a run receives.
type Action string

const (
	ActionCancel  Action = "cancel"
	ActionDiscard Action = "discard"
)

// PlannedAction is one step of a run purge.
type PlannedAction struct {
	Run     tfe.Run
	Action  Action
	Current bool
}

// RunPlan is the ordered list of actions for one workspace.
type RunPlan struct {
	Workspace *tfe.Workspace
	Actions   []PlannedAction
}

// RunOutcome is the result of one action.
type RunOutcome struct {
	RunID  string
	Action Action
	Err    error
}

// RunPurgeOptions select the workspace and the confirmation mode.
type RunPurgeOptions struct {
	Target      string
	Org         string
	DryRun      bool
	Batch       bool
	AutoApprove bool
	Comment     string
}

// RunPurgeReport is the end state of a run purge.
type RunPurgeReport struct {
	State     State
	Workspace *tfe.Workspace
	Plan      *RunPlan
	Outcomes  []RunOutcome
}

// Err returns a *tfe.PartialBatchError keyed by run id when any action
// failed.
func (r *RunPurgeReport) Err() error {
	failed := map[string]error{}
	var ok []string
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed[o.RunID] = o.Err
		} else {
			ok = append(ok, o.RunID)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &tfe.PartialBatchError{Operation: "purge runs", Succeeded: ok, Failed: failed}
}

// RunPurger drains a workspace's run queue.
type RunPurger struct {
	api       RunAPI
	confirmer RunConfirmer
	logger    *slog.Logger
}

// NewRunPurger builds a RunPurger. confirmer may be nil when every call
// uses batch mode or dry run.
func NewRunPurger(api RunAPI, confirmer RunConfirmer) *RunPurger {
	return &RunPurger{api: api, confirmer: confirmer, logger: log.WithComponent("purge")}
}

// Purge runs the workflow. A non-nil error means the workflow stopped
// before draining; per-run failures during draining are in report.Err().
func (p *RunPurger) Purge(ctx context.Context, opts RunPurgeOptions) (report *RunPurgeReport, err error) {
	ctx, span := observability.StartSpan(ctx, "purge.runs", attribute.String("hcpctl.target", opts.Target))
	defer func() { observability.EndSpan(span, err) }()

	report = &RunPurgeReport{State: StateFailed}

	ws, err := p.api.ResolveWorkspace(ctx, opts.Target, opts.Org)
	if err != nil {
		return report, err
	}
	report.Workspace = ws
	report.State = StateResolved
	logger := p.logger.With("workspace_id", ws.ID)
	span.SetAttributes(attribute.String("hcpctl.workspace_id", ws.ID))

	plan, err := p.list(ctx, ws)
	if err != nil {
		report.State = StateFailed
		return report, err
	}
	report.Plan = plan
	report.State = StateListed
	logger.Info("run purge planned", "actions", len(plan.Actions))

	if len(plan.Actions) == 0 {
		report.State = StateDone
		return report, nil
	}
	if opts.DryRun {
		report.State = StateAborted
		return report, nil
	}

	switch {
	case opts.AutoApprove:
	case opts.Batch:
		report.State = StateAborted
		return report, &tfe.ValidationError{Field: "confirmation", Message: "batch mode needs --yes to purge runs"}
	case p.confirmer == nil:
		report.State = StateAborted
		return report, &tfe.ValidationError{Field: "confirmation", Message: "no interactive terminal; pass --yes to purge runs"}
	default:
		ok, err := p.confirmer.ConfirmRunPurge(ctx, plan)
		if err != nil && !errors.Is(err, ErrDeclined) {
			report.State = StateAborted
			return report, err
		}
		if !ok {
			report.State = StateAborted
			logger.Info("run purge declined")
			return report, nil
		}
	}
	report.State = StateConfirmed
	logger.Info("run purge confirmed", "auto_approve", opts.AutoApprove)

	report.State = StateDraining
	// Draining is not interruptible: every planned action is attempted.
	mctx := context.WithoutCancel(ctx)
	for _, a := range plan.Actions {
		var actErr error
		switch a.Action {
		case ActionCancel:
			actErr = p.api.CancelRun(mctx, a.Run.ID, opts.Comment)
		case ActionDiscard:
			actErr = p.api.DiscardRun(mctx, a.Run.ID, opts.Comment)
		}
		if actErr != nil {
			logger.Warn("run action failed", "run_id", a.Run.ID, "action", string(a.Action), "error", actErr)
		} else {
			logger.Info("run action applied", "run_id", a.Run.ID, "action", string(a.Action))
		}
		report.Outcomes = append(report.Outcomes, RunOutcome{RunID: a.Run.ID, Action: a.Action, Err: actErr})
	}
	report.State = StateDone
	return report, nil
}

// list gathers the non-final runs plus the current run and orders them:
// pending runs newest first, then the current run.
func (p *RunPurger) list(ctx context.Context, ws *tfe.Workspace) (*RunPlan, error) {
	runs, err := p.api.ListRuns(ctx, ws.ID, "non_final")
	if err != nil {
		return nil, err
	}
	currentID := ws.CurrentRunID()

	seen := map[string]struct{}{}
	var pending []tfe.Run
	var current *tfe.Run
	for _, r := range runs {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		if r.ID == currentID {
			run := r
			current = &run
			continue
		}
		pending = append(pending, r)
	}
	if current == nil && currentID != "" {
		run, err := p.api.GetRun(ctx, currentID)
		switch {
		case tfe.IsNotFound(err):
		case err != nil:
			return nil, err
		default:
			current = run
		}
	}

	plan := &RunPlan{Workspace: ws}
	add := func(r tfe.Run, isCurrent bool) error {
		switch r.Status().Family() {
		case tfe.FamilyActive:
			plan.Actions = append(plan.Actions, PlannedAction{Run: r, Action: ActionCancel, Current: isCurrent})
		case tfe.FamilyQueued:
			plan.Actions = append(plan.Actions, PlannedAction{Run: r, Action: ActionDiscard, Current: isCurrent})
		case tfe.FamilyFinal:
		default:
			return &UnknownStatusError{RunID: r.ID, Status: r.Status()}
		}
		return nil
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt().After(pending[j].CreatedAt())
	})
	for _, r := range pending {
		if err := add(r, false); err != nil {
			return nil, err
		}
	}
	if current != nil {
		if err := add(*current, true); err != nil {
			return nil, err
		}
	}
	return plan, nil
}
