package follow

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/hcpctl/internal/tfe"
	"github.com/mattjoyce/hcpctl/internal/tfe/tfetest"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		raw    bool
		want   string
		wantOK bool
	}{
		{"json with message", `{"@level":"info","@message":"Plan: 1 to add","type":"planned_change"}`, false, "Plan: 1 to add", true},
		{"json without message", `{"@level":"info","type":"version"}`, false, "", false},
		{"plain", "Terraform v1.12.2", false, "Terraform v1.12.2", true},
		{"invalid json", "{invalid json}", false, "{invalid json}", true},
		{"empty", "", false, "", false},
		{"carriage return", "Plain\r", false, "Plain", true},
		{"raw keeps json", `{"@message":"x"}`, true, `{"@message":"x"}`, true},
		{"raw drops empty", "", true, "", false},
		{"raw drops bare carriage return", "\r", true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Message(tt.line, tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitComplete(t *testing.T) {
	lines, n := splitComplete("a\nb\npart", false)
	assert.Equal(t, []string{"a", "b"}, lines)
	assert.Equal(t, 4, n)

	lines, n = splitComplete("part", false)
	assert.Empty(t, lines)
	assert.Equal(t, 0, n)

	lines, n = splitComplete("a\npart", true)
	assert.Equal(t, []string{"a", "part"}, lines)
	assert.Equal(t, 6, n)
}

// scripted returns a sleep func that runs one step per poll and cancels the
// context once the steps run out.
func scripted(cancel context.CancelFunc, steps ...func()) (func(context.Context, time.Duration) bool, *int) {
	calls := 0
	return func(ctx context.Context, _ time.Duration) bool {
		calls++
		if calls > len(steps) {
			cancel()
			return false
		}
		steps[calls-1]()
		return ctx.Err() == nil
	}, &calls
}

func collect(t *testing.T, seq func(func(Line, error) bool)) ([]Line, error) {
	t.Helper()
	var (
		lines []Line
		last  error
	)
	for line, err := range seq {
		if err != nil {
			last = err
			continue
		}
		lines = append(lines, line)
	}
	return lines, last
}

func texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestFollowSnapshot(t *testing.T) {
	srv := tfetest.New(t)
	srv.SetPhase("run-1", tfe.PhasePlan, "finished",
		"Terraform v1.9.0\n{\"@message\":\"Plan: 2 to add\"}\n{\"type\":\"version\"}\n\nlast line")
	f := New(srv.Client(t), Options{})

	lines, err := collect(t, f.Follow(context.Background(), "run-1", Snapshot))
	require.NoError(t, err)
	assert.Equal(t, []string{"Terraform v1.9.0", "Plan: 2 to add", "last line"}, texts(lines))
	for _, l := range lines {
		assert.Equal(t, "run-1", l.RunID)
		assert.Equal(t, EventNone, l.Event)
	}
}

func TestFollowSnapshotMissingRun(t *testing.T) {
	srv := tfetest.New(t)
	f := New(srv.Client(t), Options{})

	lines, err := collect(t, f.Follow(context.Background(), "run-gone", Snapshot))
	assert.Empty(t, lines)
	assert.True(t, tfe.IsNotFound(err))
}

func TestFollowTailEmitsOnlyCompleteLines(t *testing.T) {
	srv := tfetest.New(t)
	srv.SetPhase("run-1", tfe.PhaseApply, "running", "first\nsec")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(srv.Client(t), Options{Phase: tfe.PhaseApply})
	var seenBeforeFinish []string
	sleep, calls := scripted(cancel,
		func() { srv.AppendLog("run-1", tfe.PhaseApply, "ond\n{\"@message\":\"third\"}\n", "") },
		func() { srv.AppendLog("run-1", tfe.PhaseApply, "tail without newline", "finished") },
	)
	f.sleep = func(ctx context.Context, d time.Duration) bool {
		return sleep(ctx, d)
	}

	var got []string
	for line, err := range f.Follow(ctx, "run-1", Tail) {
		require.NoError(t, err)
		if *calls < 2 {
			seenBeforeFinish = append(seenBeforeFinish, line.Text)
		}
		got = append(got, line.Text)
	}
	assert.Equal(t, []string{"first", "second", "third", "tail without newline"}, got)
	assert.NotContains(t, seenBeforeFinish, "sec")
	assert.Equal(t, 2, *calls)
}

func TestFollowTailStopsOnCancel(t *testing.T) {
	srv := tfetest.New(t)
	srv.SetPhase("run-1", tfe.PhasePlan, "running", "one\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(srv.Client(t), Options{})
	f.sleep, _ = scripted(cancel)

	lines, err := collect(t, f.Follow(ctx, "run-1", Tail))
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, texts(lines))
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/v2/runs/run-1/plan"))
}

func TestFollowTailRetriesFailedLogFetch(t *testing.T) {
	srv := tfetest.New(t)
	srv.SetPhase("run-1", tfe.PhasePlan, "running", "one\n")
	srv.Fail(http.MethodGet, "/logs/run-1/plan", http.StatusInternalServerError)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(srv.Client(t), Options{})
	f.sleep, _ = scripted(cancel,
		func() { srv.AppendLog("run-1", tfe.PhasePlan, "two\n", "finished") },
	)

	lines, err := collect(t, f.Follow(ctx, "run-1", Tail))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts(lines))
	assert.Equal(t, 2, srv.Count(http.MethodGet, "/logs/run-1/plan"))
}

func TestFollowConsumerCanStopEarly(t *testing.T) {
	srv := tfetest.New(t)
	srv.SetPhase("run-1", tfe.PhasePlan, "running", "a\nb\nc\n")
	f := New(srv.Client(t), Options{})
	f.sleep = func(context.Context, time.Duration) bool {
		t.Fatal("no further poll expected")
		return false
	}

	var got []string
	for line, err := range f.Follow(context.Background(), "run-1", Tail) {
		require.NoError(t, err)
		got = append(got, line.Text)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}
