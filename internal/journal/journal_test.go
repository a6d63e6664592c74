package journal

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpenBootstrapsTables(t *testing.T) {
	t.Parallel()
	j := openTemp(t)

	var name string
	err := j.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='operations';").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "operations", name)
}

func TestOpenInMemory(t *testing.T) {
	t.Parallel()
	j, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Record(context.Background(), &Entry{Kind: KindRunPurge, WorkspaceID: "ws-1"}))
}

func TestRecordAndGetStatePurge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j := openTemp(t)

	backup := []byte(`{"version":4,"serial":7,"lineage":"abc","resources":[{}]}`)
	started := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	e := &Entry{
		Kind:          KindStatePurge,
		Host:          "app.terraform.io",
		WorkspaceID:   "ws-123",
		WorkspaceName: "net",
		StartedAt:     started,
		FinishedAt:    started.Add(3 * time.Second),
		Outcome:       "succeeded",
		LockReleased:  true,
		Detail:        json.RawMessage(`{"old_serial":7,"new_serial":8}`),
		StateBackup:   backup,
	}
	require.NoError(t, j.Record(ctx, e))
	require.NotEmpty(t, e.ID)
	assert.Equal(t, Digest(backup), e.StateDigest)

	got, err := j.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, KindStatePurge, got.Kind)
	assert.Equal(t, "net", got.WorkspaceName)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.LockReleased)
	assert.JSONEq(t, `{"old_serial":7,"new_serial":8}`, string(got.Detail))
	assert.Equal(t, backup, got.StateBackup)
	assert.NoError(t, got.VerifyBackup())

	got.StateBackup[0] = '['
	assert.ErrorContains(t, got.VerifyBackup(), "corrupt")
}

func TestGetByPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j := openTemp(t)

	require.NoError(t, j.Record(ctx, &Entry{ID: "aaaa-1111", Kind: KindRunPurge, WorkspaceID: "ws-1"}))
	require.NoError(t, j.Record(ctx, &Entry{ID: "aaaa-2222", Kind: KindRunPurge, WorkspaceID: "ws-1"}))
	require.NoError(t, j.Record(ctx, &Entry{ID: "bbbb-3333", Kind: KindRunPurge, WorkspaceID: "ws-2"}))

	tests := []struct {
		id      string
		want    string
		wantErr string
	}{
		{id: "bbbb", want: "bbbb-3333"},
		{id: "aaaa-2222", want: "aaaa-2222"},
		{id: "aaaa", wantErr: "ambiguous"},
		{id: "cccc", wantErr: "not found"},
		{id: "%", wantErr: "not found"},
		{id: " ", wantErr: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := j.Get(ctx, tt.id)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, err := j.Get(ctx, "cccc")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j := openTemp(t)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, ws := range []string{"ws-1", "ws-2", "ws-1"} {
		require.NoError(t, j.Record(ctx, &Entry{
			ID:          strings.Repeat(string(rune('a'+i)), 4),
			Kind:        KindRunPurge,
			WorkspaceID: ws,
			StartedAt:   base.Add(time.Duration(i) * 500 * time.Millisecond),
			StateBackup: []byte("x"),
		}))
	}

	all, err := j.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"cccc", "bbbb", "aaaa"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Nil(t, all[0].StateBackup)

	ws1, err := j.List(ctx, ListOptions{WorkspaceID: "ws-1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, ws1, 1)
	assert.Equal(t, "cccc", ws1[0].ID)

	none, err := j.List(ctx, ListOptions{WorkspaceID: "ws-9"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRecordRejectsIncompleteEntry(t *testing.T) {
	t.Parallel()
	j := openTemp(t)
	assert.Error(t, j.Record(context.Background(), &Entry{Kind: KindRunPurge}))
	assert.Error(t, j.Record(context.Background(), &Entry{Kind: KindRunPurge, WorkspaceID: "ws-1", Detail: json.RawMessage(`{`)}))
}
