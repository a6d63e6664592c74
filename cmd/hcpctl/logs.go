package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/follow"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

const runIDPrefix = "run-"

var markerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF"))

type logFlags struct {
	org      string
	apply    bool
	raw      bool
	interval time.Duration
}

func (f logFlags) options(a *app) follow.Options {
	opts := follow.Options{Phase: tfe.PhasePlan, Raw: f.raw, Interval: f.interval}
	if f.apply {
		opts.Phase = tfe.PhaseApply
	}
	if opts.Interval <= 0 && a.cfg != nil {
		opts.Interval = a.cfg.Settings.PollInterval
	}
	return opts
}

func newLogsCommand(a *app) *cobra.Command {
	var flags logFlags
	var tail bool
	cmd := &cobra.Command{
		Use:   "logs <run-id|workspace>",
		Short: "Print the plan or apply log of a run",
		Long: "Print the plan or apply log of a run. A workspace id or name selects\n" +
			"the workspace's current run. With -f the log is followed until the\n" +
			"phase finishes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			runID := strings.TrimSpace(args[0])
			if !strings.HasPrefix(runID, runIDPrefix) {
				ws, err := c.ResolveWorkspace(ctx, runID, a.defaultOrg(flags.org))
				if err != nil {
					return err
				}
				runID = ws.CurrentRunID()
				if runID == "" {
					return &tfe.NotFoundError{Resource: fmt.Sprintf("current run of workspace %s", ws.ID)}
				}
			}

			mode := follow.Snapshot
			if tail {
				mode = follow.Tail
			}
			f := follow.New(c, flags.options(a))
			for line, err := range f.Follow(ctx, runID, mode) {
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, line.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.org, "org", "", "organization of the workspace")
	cmd.Flags().BoolVar(&flags.apply, "apply", false, "show the apply log instead of the plan log")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "print log lines unparsed")
	cmd.Flags().BoolVarP(&tail, "follow", "f", false, "follow the log until the phase finishes")
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "poll interval when following (default from config)")
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow activity until interrupted",
	}
	cmd.AddCommand(newWatchWorkspaceCommand(a))
	return cmd
}

func newWatchWorkspaceCommand(a *app) *cobra.Command {
	var flags logFlags
	var noPrefix bool
	cmd := &cobra.Command{
		Use:     "ws <workspace>",
		Aliases: []string{"workspace"},
		Short:   "Stream the log of every new run of a workspace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.apiClient(ctx)
			if err != nil {
				return err
			}
			ws, err := c.ResolveWorkspace(ctx, args[0], a.defaultOrg(flags.org))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "Watching %s (%s); Ctrl-C to stop\n", ws.Attributes.Name, ws.ID)

			w := follow.NewWatcher(c, c, flags.options(a))
			for line, err := range w.Watch(ctx, ws.ID) {
				if err != nil {
					return err
				}
				writeWatchLine(a.out, line, !noPrefix)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.org, "org", "", "organization of the workspace")
	cmd.Flags().BoolVar(&flags.apply, "apply", false, "follow apply logs instead of plan logs")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "print log lines unparsed")
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().BoolVar(&noPrefix, "no-prefix", false, "do not prefix lines with the run id")
	return cmd
}

func writeWatchLine(w io.Writer, line follow.Line, prefix bool) {
	var text string
	switch line.Event {
	case follow.EventRunStarted:
		text = markerStyle.Render(fmt.Sprintf("=== %s %s started ===", line.RunID, line.Phase))
	case follow.EventRunCompleted:
		text = markerStyle.Render(fmt.Sprintf("=== %s %s finished ===", line.RunID, line.Phase))
	case follow.EventRunVanished:
		text = markerStyle.Render(fmt.Sprintf("=== %s disappeared ===", line.RunID))
	default:
		text = line.Text
		if prefix {
			text = fmt.Sprintf("[%s] %s", line.RunID, text)
		}
	}
	fmt.Fprintln(w, text)
}
