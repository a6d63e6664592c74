package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/config"
	"github.com/mattjoyce/hcpctl/internal/journal"
	"github.com/mattjoyce/hcpctl/internal/lock"
	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/output"
	"github.com/mattjoyce/hcpctl/internal/prompt"
	"github.com/mattjoyce/hcpctl/internal/purge"
)

func newPurgeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Destructive workspace maintenance",
	}
	cmd.AddCommand(newPurgeRunCommand(a), newPurgeStateCommand(a))
	return cmd
}

// runActionView is the printable form of one planned run action.
type runActionView struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Action  string `json:"action"`
	Current bool   `json:"current"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type runPurgeView struct {
	WorkspaceID string          `json:"workspace_id"`
	State       string          `json:"state"`
	Actions     []runActionView `json:"actions"`
}

func newRunPurgeView(report *purge.RunPurgeReport) runPurgeView {
	v := runPurgeView{State: string(report.State), Actions: []runActionView{}}
	if report.Workspace != nil {
		v.WorkspaceID = report.Workspace.ID
	}
	if report.Plan == nil {
		return v
	}
	outcomes := map[string]purge.RunOutcome{}
	for _, o := range report.Outcomes {
		outcomes[o.RunID] = o
	}
	for _, pa := range report.Plan.Actions {
		av := runActionView{RunID: pa.Run.ID, Status: string(pa.Run.Status()), Action: string(pa.Action), Current: pa.Current}
		if o, ok := outcomes[pa.Run.ID]; ok {
			av.Result = "ok"
			if o.Err != nil {
				av.Result = "failed"
				av.Error = o.Err.Error()
			}
		}
		v.Actions = append(v.Actions, av)
	}
	return v
}

func (v runPurgeView) table() output.Table {
	t := output.Table{Headers: []string{"RUN", "STATUS", "ACTION", "RESULT"}}
	for _, av := range v.Actions {
		id := av.RunID
		if av.Current {
			id += " *"
		}
		result := av.Result
		switch {
		case av.Error != "":
			result = "failed: " + av.Error
		case result == "":
			result = "-"
		}
		t.Rows = append(t.Rows, []string{id, av.Status, av.Action, result})
	}
	return t
}

func newPurgeRunCommand(a *app) *cobra.Command {
	var (
		org     string
		dryRun  bool
		yes     bool
		comment string
	)
	cmd := &cobra.Command{
		Use:   "run <workspace>",
		Short: "Cancel or discard every pending and active run of a workspace",
		Long: "Discard queued runs newest first, then cancel or discard the current\n" +
			"run. Every run is attempted even when an earlier one fails.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			var confirmer purge.RunConfirmer
			if a.interactive() {
				confirmer = a.prompter()
			}
			started := time.Now()
			report, err := purge.NewRunPurger(c, confirmer).Purge(ctx, purge.RunPurgeOptions{
				Target:      args[0],
				Org:         a.defaultOrg(org),
				DryRun:      dryRun,
				Batch:       a.batch,
				AutoApprove: yes,
				Comment:     comment,
			})
			if err != nil {
				return err
			}

			view := newRunPurgeView(report)
			switch {
			case dryRun && report.Plan != nil:
				fmt.Fprint(a.errOut, prompt.RenderRunPlan(report.Plan, prompt.NewDefaultTheme()))
				fmt.Fprintln(a.errOut, "Dry run: nothing was changed.")
			case report.State == purge.StateAborted:
				fmt.Fprintln(a.errOut, "Aborted: nothing was changed.")
				return nil
			case len(view.Actions) == 0:
				fmt.Fprintln(a.errOut, "No pending or active runs.")
				return nil
			}
			if len(report.Outcomes) > 0 {
				a.recordRunPurge(ctx, c.Host(), started, report, view)
			}
			if err := p.Print(view, view.table()); err != nil {
				return err
			}
			return report.Err()
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization of the workspace")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without changing anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&comment, "comment", "", "comment attached to each cancel or discard")
	return cmd
}

func newPurgeStateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state <workspace-id>",
		Short: "Replace a workspace's state with an empty one",
		Long: "Replace the current state of a workspace with an empty state of the\n" +
			"same lineage. Resources are forgotten, not destroyed. The workspace\n" +
			"must be given by id and the id must be typed back to confirm; --batch\n" +
			"does not skip this. The replaced state is kept in the local journal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workspaceID := args[0]
			c, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			guard, err := lock.AcquireGuard(lock.GuardPath(guardDir(), workspaceID))
			if err != nil {
				return err
			}
			defer func() { _ = guard.Release() }()

			started := time.Now()
			res, purgeErr := purge.NewStatePurger(c, a.prompter()).Purge(ctx, workspaceID)
			entryID := ""
			if res != nil && res.Workspace != nil && res.Outcome != purge.OutcomeAborted && res.Outcome != purge.OutcomeNothingToPurge {
				entryID = a.recordStatePurge(ctx, c.Host(), started, res, purgeErr)
			}
			if purgeErr != nil {
				if entryID != "" {
					fmt.Fprintf(a.errOut, "Journal entry: %s\n", entryID)
				}
				return purgeErr
			}

			switch res.Outcome {
			case purge.OutcomeNothingToPurge:
				fmt.Fprintf(a.out, "Workspace %s has no resources; nothing to purge.\n", workspaceID)
			case purge.OutcomeAborted:
				fmt.Fprintln(a.errOut, "Aborted: nothing was changed.")
			case purge.OutcomeSucceeded:
				fmt.Fprintf(a.out, "Purged state of %s: lineage %s, serial %d -> %d; workspace unlocked.\n",
					workspaceID, res.Lineage, res.OldSerial, res.NewSerial)
				if entryID != "" {
					fmt.Fprintf(a.out, "Previous state saved in journal entry %s\n", entryID)
				}
			}
			return nil
		},
	}
	return cmd
}

// guardDir holds the per-workspace local guards, next to the default
// journal.
func guardDir() string {
	return filepath.Join(filepath.Dir(config.DefaultJournalPath()), "locks")
}

func (a *app) recordRunPurge(ctx context.Context, host string, started time.Time, report *purge.RunPurgeReport, view runPurgeView) {
	j := a.openJournal(ctx)
	if j == nil {
		return
	}
	detail, _ := json.Marshal(view)
	e := &journal.Entry{
		Kind:          journal.KindRunPurge,
		Host:          host,
		WorkspaceID:   report.Workspace.ID,
		WorkspaceName: report.Workspace.Attributes.Name,
		StartedAt:     started,
		Outcome:       string(report.State),
		Detail:        detail,
	}
	if err := report.Err(); err != nil {
		e.Outcome = "partial"
		e.Error = err.Error()
	}
	if err := j.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Warn("journal write failed", "error", err)
	}
}

func (a *app) recordStatePurge(ctx context.Context, host string, started time.Time, res *purge.StatePurgeResult, purgeErr error) string {
	j := a.openJournal(ctx)
	if j == nil {
		return ""
	}
	detail, _ := json.Marshal(map[string]any{
		"state":      res.State,
		"lock_taken": res.LockTaken,
		"lineage":    res.Lineage,
		"old_serial": res.OldSerial,
		"new_serial": res.NewSerial,
	})
	e := &journal.Entry{
		Kind:          journal.KindStatePurge,
		Host:          host,
		WorkspaceID:   res.Workspace.ID,
		WorkspaceName: res.Workspace.Attributes.Name,
		StartedAt:     started,
		Outcome:       string(res.Outcome),
		LockReleased:  res.LockReleased,
		Detail:        detail,
		StateBackup:   res.Backup,
	}
	if purgeErr != nil {
		e.Error = purgeErr.Error()
	}
	if err := j.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Warn("journal write failed", "error", err)
		return ""
	}
	return e.ID
}
