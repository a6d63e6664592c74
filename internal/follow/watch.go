package follow

import (
	"context"
	"iter"

	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// WorkspaceSource reads the workspace a Watcher observes.
type WorkspaceSource interface {
	GetWorkspace(ctx context.Context, id string) (*tfe.Workspace, error)
}

type watchState int

const (
	searching watchState = iota
	tailing
)

func (s watchState) String() string {
	if s == tailing {
		return "tailing"
	}
	return "searching"
}

// Watcher follows each new run of a workspace, one after another.
type Watcher struct {
	workspaces WorkspaceSource
	follower   *Follower
}

// NewWatcher builds a Watcher whose tail follower polls with opts.
func NewWatcher(workspaces WorkspaceSource, src Source, opts Options) *Watcher {
	return &Watcher{workspaces: workspaces, follower: New(src, opts)}
}

// Watch runs until ctx is canceled or an error occurs. It alternates
// between searching for a current run it has not seen and tailing that
// run. Each tailed run is bracketed by EventRunStarted and EventRunCompleted
// lines, or EventRunVanished when the run disappears mid-tail.
func (w *Watcher) Watch(ctx context.Context, workspaceID string) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		f := w.follower
		logger := f.logger.With("workspace_id", workspaceID)
		seen := map[string]struct{}{}
		state := searching
		var runID string

		for {
			if ctx.Err() != nil {
				return
			}
			switch state {
			case searching:
				ws, err := w.workspaces.GetWorkspace(context.WithoutCancel(ctx), workspaceID)
				if err != nil {
					yield(Line{}, err)
					return
				}
				current := ws.CurrentRunID()
				if _, done := seen[current]; current == "" || done {
					if !f.sleep(ctx, f.opts.Interval) {
						return
					}
					continue
				}
				runID = current
				seen[runID] = struct{}{}
				logger.Debug("new run detected", "run_id", runID, "state", tailing.String())
				state = tailing

			case tailing:
				if !yield(Line{RunID: runID, Phase: f.opts.Phase, Event: EventRunStarted}, nil) {
					return
				}
				end := EventRunCompleted
				for line, err := range f.Follow(ctx, runID, Tail) {
					if tfe.IsNotFound(err) {
						end = EventRunVanished
						break
					}
					if err != nil {
						yield(Line{}, err)
						return
					}
					if !yield(line, nil) {
						return
					}
				}
				if ctx.Err() != nil {
					return
				}
				if !yield(Line{RunID: runID, Phase: f.opts.Phase, Event: end}, nil) {
					return
				}
				logger.Debug("run finished", "run_id", runID, "event", end, "state", searching.String())
				state = searching
				if !f.sleep(ctx, f.opts.Interval) {
					return
				}
			}
		}
	}
}

