// Package follow streams run logs. A Follower reads one run phase either
// once (Snapshot) or by polling until the phase is final (Tail); a Watcher
// follows every new run of a workspace in turn.
package follow

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// DefaultInterval is the tail poll period.
const DefaultInterval = 3 * time.Second

const maxFinalMisses = 3

// Source is the slice of the API a Follower needs.
type Source interface {
	GetRunPhase(ctx context.Context, runID string, phase tfe.Phase) (*tfe.RunPhase, error)
	GetLogContent(ctx context.Context, logURL string) (string, error)
}

// Mode selects a one-shot read or a poll-until-final tail.
type Mode int

const (
	Snapshot Mode = iota
	Tail
)

// Event marks the lines a Watcher emits around each run.
type Event int

const (
	EventNone Event = iota
	EventRunStarted
	EventRunCompleted
	EventRunVanished
)

// Line is one emitted log line.
type Line struct {
	RunID string
	Phase tfe.Phase
	Text  string
	Event Event
}

// Options configure a Follower.
type Options struct {
	Phase    tfe.Phase
	Raw      bool
	Interval time.Duration
}

// Follower reads run phase logs.
type Follower struct {
	src    Source
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) bool
}

// New builds a Follower. Zero options mean the plan phase, parsed output
// and DefaultInterval.
func New(src Source, opts Options) *Follower {
	if opts.Phase == "" {
		opts.Phase = tfe.PhasePlan
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Follower{
		src:    src,
		opts:   opts,
		logger: log.WithComponent("follow"),
		sleep:  sleepCtx,
	}
}

// Follow yields the log lines of runID. In Tail mode polls continue until
// the phase is final or ctx is canceled; cancellation ends the sequence
// without an error.
func (f *Follower) Follow(ctx context.Context, runID string, mode Mode) iter.Seq2[Line, error] {
	if mode == Snapshot {
		return f.snapshot(ctx, runID)
	}
	return f.tail(ctx, runID)
}

func (f *Follower) snapshot(ctx context.Context, runID string) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		phase, err := f.src.GetRunPhase(ctx, runID, f.opts.Phase)
		if err != nil {
			yield(Line{}, err)
			return
		}
		url := phase.Attributes.LogReadURL
		if url == "" {
			return
		}
		content, err := f.src.GetLogContent(ctx, url)
		if err != nil {
			yield(Line{}, err)
			return
		}
		lines, _ := splitComplete(content, true)
		f.emit(runID, lines, yield)
	}
}

func (f *Follower) tail(ctx context.Context, runID string) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		logger := f.logger.With("run_id", runID, "phase", string(f.opts.Phase))
		// A poll that has started runs to completion.
		pollCtx := context.WithoutCancel(ctx)
		offset := 0
		finalMisses := 0
		for {
			if ctx.Err() != nil {
				return
			}
			phase, err := f.src.GetRunPhase(pollCtx, runID, f.opts.Phase)
			if err != nil {
				yield(Line{}, err)
				return
			}
			final := phase.Attributes.Status.Final()

			if url := phase.Attributes.LogReadURL; url != "" {
				content, err := f.src.GetLogContent(pollCtx, url)
				switch {
				case err != nil:
					logger.Debug("log fetch failed, retrying next poll", "error", err)
					// The tail of a finished log is worth a few more polls.
					if final && finalMisses < maxFinalMisses {
						finalMisses++
						final = false
					}
				case len(content) < offset:
					logger.Warn("log shrank between polls", "offset", offset, "length", len(content))
				default:
					lines, n := splitComplete(content[offset:], final)
					offset += n
					if !f.emit(runID, lines, yield) {
						return
					}
				}
			}

			if final {
				return
			}
			if !f.sleep(ctx, f.opts.Interval) {
				return
			}
		}
	}
}

// emit yields parsed lines and reports whether the consumer wants more.
func (f *Follower) emit(runID string, lines []string, yield func(Line, error) bool) bool {
	for _, raw := range lines {
		text, ok := Message(raw, f.opts.Raw)
		if !ok {
			continue
		}
		if !yield(Line{RunID: runID, Phase: f.opts.Phase, Text: text}, nil) {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
