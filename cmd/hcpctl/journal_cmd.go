package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/journal"
	"github.com/mattjoyce/hcpctl/internal/output"
)

func newJournalCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local record of purges",
	}
	cmd.AddCommand(newJournalListCommand(a), newJournalShowCommand(a))
	return cmd
}

func (a *app) requireJournal(cmd *cobra.Command) (*journal.Journal, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Journal.Disabled {
		return nil, fmt.Errorf("the journal is disabled in %s", cfg.Path())
	}
	j := a.openJournal(cmd.Context())
	if j == nil {
		return nil, fmt.Errorf("the journal could not be opened; see the warning above")
	}
	return j, nil
}

func newJournalListCommand(a *app) *cobra.Command {
	var opts journal.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled purges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			j, err := a.requireJournal(cmd)
			if err != nil {
				return err
			}
			entries, err := j.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return p.Print(entries, output.JournalTable(entries))
		},
	}
	cmd.Flags().StringVar(&opts.WorkspaceID, "workspace", "", "only entries for this workspace id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of entries (0 for all)")
	return cmd
}

func newJournalShowCommand(a *app) *cobra.Command {
	var state bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry; --state prints the saved pre-purge state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			j, err := a.requireJournal(cmd)
			if err != nil {
				return err
			}
			e, err := j.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if state {
				if err := e.VerifyBackup(); err != nil {
					return err
				}
				_, err := a.out.Write(e.StateBackup)
				return err
			}
			t := output.Table{Headers: []string{"FIELD", "VALUE"}, Rows: [][]string{
				{"id", e.ID},
				{"kind", string(e.Kind)},
				{"host", e.Host},
				{"workspace", fmt.Sprintf("%s (%s)", e.WorkspaceID, e.WorkspaceName)},
				{"started", e.StartedAt.Local().Format("2006-01-02 15:04:05")},
				{"finished", e.FinishedAt.Local().Format("2006-01-02 15:04:05")},
				{"outcome", e.Outcome},
				{"lock released", fmt.Sprintf("%t", e.LockReleased)},
				{"error", e.Error},
				{"state digest", e.StateDigest},
				{"detail", string(e.Detail)},
			}}
			return p.Print(e, t)
		},
	}
	cmd.Flags().BoolVar(&state, "state", false, "write the saved state JSON to stdout")
	return cmd
}
