package purge_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/hcpctl/internal/lock"
	"github.com/mattjoyce/hcpctl/internal/purge"
	"github.com/mattjoyce/hcpctl/internal/purge/mocks"
	"github.com/mattjoyce/hcpctl/internal/tfe"
	"github.com/mattjoyce/hcpctl/internal/tfe/tfetest"
)

type typed string

func (s typed) ConfirmStatePurge(context.Context, *tfe.Workspace, *tfe.StateVersion) (string, error) {
	return string(s), nil
}

const stateBody = `{"version":4,"terraform_version":"1.9.0","serial":7,"lineage":"abc","outputs":{"ip":{"value":"10.0.0.1","type":"string"}},"resources":[{"mode":"managed","type":"null_resource","name":"a"}]}`

func stateVersion() *tfe.StateVersion {
	sv := &tfe.StateVersion{ID: "sv-1", Type: "state-versions"}
	sv.Attributes.Serial = 7
	sv.Attributes.Lineage = "abc"
	sv.Attributes.HostedStateDownloadURL = "https://archivist.example/sv-1"
	return sv
}

// expectUpToLock sets up the calls every post-lock scenario shares.
func expectUpToLock(api *mocks.MockStateAPI) {
	api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(workspace("ws-123", ""), nil)
	api.EXPECT().GetCurrentStateVersion(gomock.Any(), "ws-123").Return(stateVersion(), nil)
	api.EXPECT().LockWorkspace(gomock.Any(), "ws-123", purge.LockReason).Return(nil)
}

func TestStatePurgeUnlocksOnEveryPathAfterLock(t *testing.T) {
	downloadErr := errors.New("archivist unavailable")
	uploadErr := &tfe.ClientError{Status: http.StatusConflict, Resource: "state version"}
	unlockErr := errors.New("unlock refused")

	tests := []struct {
		name        string
		download    func(*mocks.MockStateAPI)
		unlock      error
		wantOutcome purge.Outcome
		check       func(t *testing.T, err error)
	}{
		{
			name: "download fails",
			download: func(api *mocks.MockStateAPI) {
				api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).Return(nil, downloadErr)
			},
			wantOutcome: purge.OutcomeFailedUnlocked,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, downloadErr)
				assert.Contains(t, err.Error(), "workspace unlocked")
			},
		},
		{
			name: "state is not JSON",
			download: func(api *mocks.MockStateAPI) {
				api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).Return([]byte("<html>"), nil)
			},
			wantOutcome: purge.OutcomeFailedUnlocked,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "parse state of workspace ws-123")
			},
		},
		{
			name: "upload fails",
			download: func(api *mocks.MockStateAPI) {
				api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).Return([]byte(stateBody), nil)
				api.EXPECT().UploadState(gomock.Any(), "ws-123", gomock.Any()).Return(nil, uploadErr)
			},
			wantOutcome: purge.OutcomeFailedUnlocked,
			check: func(t *testing.T, err error) {
				var ce *tfe.ClientError
				assert.True(t, errors.As(err, &ce))
			},
		},
		{
			name: "unlock fails after success",
			download: func(api *mocks.MockStateAPI) {
				api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).Return([]byte(stateBody), nil)
				api.EXPECT().UploadState(gomock.Any(), "ws-123", gomock.Any()).Return(stateVersion(), nil)
			},
			unlock:      unlockErr,
			wantOutcome: purge.OutcomeLockHeld,
			check: func(t *testing.T, err error) {
				var ufe *purge.UnlockFailureError
				require.True(t, errors.As(err, &ufe))
				assert.Nil(t, ufe.Cause)
				assert.ErrorIs(t, err, unlockErr)
				assert.Contains(t, err.Error(), "STILL LOCKED")
			},
		},
		{
			name: "unlock fails after upload failure",
			download: func(api *mocks.MockStateAPI) {
				api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).Return([]byte(stateBody), nil)
				api.EXPECT().UploadState(gomock.Any(), "ws-123", gomock.Any()).Return(nil, uploadErr)
			},
			unlock:      unlockErr,
			wantOutcome: purge.OutcomeLockHeld,
			check: func(t *testing.T, err error) {
				var ufe *purge.UnlockFailureError
				require.True(t, errors.As(err, &ufe))
				assert.ErrorIs(t, err, uploadErr)
				assert.ErrorIs(t, err, unlockErr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			api := mocks.NewMockStateAPI(ctrl)
			expectUpToLock(api)
			tt.download(api)
			api.EXPECT().UnlockWorkspace(gomock.Any(), "ws-123").Return(tt.unlock).Times(1)

			res, err := purge.NewStatePurger(api, typed("ws-123")).Purge(context.Background(), "ws-123")
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, purge.StateFailed, res.State)
			assert.True(t, res.LockTaken)
			assert.Equal(t, tt.unlock == nil, res.LockReleased)
		})
	}
}

func TestStatePurgeStopsBeforeLock(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		confirmer   purge.StateConfirmer
		setup       func(*mocks.MockStateAPI)
		wantOutcome purge.Outcome
		wantErr     func(t *testing.T, err error)
	}{
		{
			name:        "name instead of id",
			target:      "net",
			confirmer:   typed("net"),
			setup:       func(*mocks.MockStateAPI) {},
			wantOutcome: purge.OutcomeFailedBeforeLock,
			wantErr: func(t *testing.T, err error) {
				var ve *tfe.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "workspace", ve.Field)
			},
		},
		{
			name:      "no resources",
			target:    "ws-123",
			confirmer: typed("ws-123"),
			setup: func(api *mocks.MockStateAPI) {
				ws := workspace("ws-123", "")
				ws.Attributes.ResourceCount = 0
				api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(ws, nil)
			},
			wantOutcome: purge.OutcomeNothingToPurge,
		},
		{
			name:      "confirmation mismatch",
			target:    "ws-123",
			confirmer: typed("ws-124"),
			setup: func(api *mocks.MockStateAPI) {
				api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(workspace("ws-123", ""), nil)
				api.EXPECT().GetCurrentStateVersion(gomock.Any(), "ws-123").Return(stateVersion(), nil)
			},
			wantOutcome: purge.OutcomeAborted,
			wantErr: func(t *testing.T, err error) {
				var ve *tfe.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "confirmation", ve.Field)
			},
		},
		{
			name:      "confirmation with surrounding space",
			target:    "ws-123",
			confirmer: typed("  ws-123\n"),
			setup: func(api *mocks.MockStateAPI) {
				expectUpToLock(api)
				api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).Return([]byte(stateBody), nil)
				api.EXPECT().UploadState(gomock.Any(), "ws-123", gomock.Any()).Return(stateVersion(), nil)
				api.EXPECT().UnlockWorkspace(gomock.Any(), "ws-123").Return(nil)
			},
			wantOutcome: purge.OutcomeSucceeded,
		},
		{
			name:   "operator declines",
			target: "ws-123",
			setup: func(api *mocks.MockStateAPI) {
				api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(workspace("ws-123", ""), nil)
				api.EXPECT().GetCurrentStateVersion(gomock.Any(), "ws-123").Return(stateVersion(), nil)
			},
			wantOutcome: purge.OutcomeAborted,
		},
		{
			name:      "lock conflict",
			target:    "ws-123",
			confirmer: typed("ws-123"),
			setup: func(api *mocks.MockStateAPI) {
				api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(workspace("ws-123", ""), nil)
				api.EXPECT().GetCurrentStateVersion(gomock.Any(), "ws-123").Return(stateVersion(), nil)
				api.EXPECT().LockWorkspace(gomock.Any(), "ws-123", purge.LockReason).
					Return(&tfe.LockConflictError{WorkspaceID: "ws-123", Detail: "already locked"})
			},
			wantOutcome: purge.OutcomeFailedBeforeLock,
			wantErr: func(t *testing.T, err error) {
				var lce *tfe.LockConflictError
				require.True(t, errors.As(err, &lce))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			api := mocks.NewMockStateAPI(ctrl)
			tt.setup(api)

			confirmer := tt.confirmer
			if confirmer == nil {
				c := mocks.NewMockStateConfirmer(ctrl)
				c.EXPECT().ConfirmStatePurge(gomock.Any(), gomock.Any(), gomock.Any()).Return("", purge.ErrDeclined)
				confirmer = c
			}

			res, err := purge.NewStatePurger(api, confirmer).Purge(context.Background(), tt.target)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			if tt.wantOutcome != purge.OutcomeSucceeded {
				assert.False(t, res.LockTaken)
			}
		})
	}
}

func TestStatePurgeIgnoresCancellationOnceLocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockStateAPI(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(workspace("ws-123", ""), nil)
	api.EXPECT().GetCurrentStateVersion(gomock.Any(), "ws-123").Return(stateVersion(), nil)
	api.EXPECT().LockWorkspace(gomock.Any(), "ws-123", purge.LockReason).DoAndReturn(func(ctx context.Context, _, _ string) error {
		cancel()
		return nil
	})
	api.EXPECT().DownloadState(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) ([]byte, error) {
		return []byte(stateBody), ctx.Err()
	})
	api.EXPECT().UploadState(gomock.Any(), "ws-123", gomock.Any()).DoAndReturn(func(ctx context.Context, _ string, _ *tfe.StateFile) (*tfe.StateVersion, error) {
		return stateVersion(), ctx.Err()
	})
	api.EXPECT().UnlockWorkspace(gomock.Any(), "ws-123").DoAndReturn(func(ctx context.Context, _ string) error {
		return ctx.Err()
	}).Times(1)

	res, err := purge.NewStatePurger(api, typed("ws-123")).Purge(ctx, "ws-123")
	require.NoError(t, err)
	assert.Equal(t, purge.OutcomeSucceeded, res.Outcome)
	assert.True(t, res.LockReleased)
}

func TestEmptyState(t *testing.T) {
	var current tfe.StateFile
	require.NoError(t, json.Unmarshal([]byte(stateBody), &current))

	empty := purge.EmptyState(&current)
	assert.Equal(t, 4, empty.Version)
	assert.Equal(t, "1.9.0", empty.TerraformVersion)
	assert.Equal(t, "abc", empty.Lineage)
	assert.Equal(t, 8, empty.Serial)
	assert.Empty(t, empty.Resources)
	assert.JSONEq(t, `{}`, string(empty.Outputs))

	body, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"resources":[]`)

	assert.Equal(t, 4, purge.EmptyState(&tfe.StateFile{Lineage: "x"}).Version)
}

func TestStatePurgeAgainstAPI(t *testing.T) {
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-123", "net", 1)
	var state tfe.StateFile
	require.NoError(t, json.Unmarshal([]byte(stateBody), &state))
	srv.SetState("ws-123", state)
	c := srv.Client(t)

	res, err := purge.NewStatePurger(c, typed("ws-123")).Purge(context.Background(), "ws-123")
	require.NoError(t, err)
	assert.Equal(t, purge.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 7, res.OldSerial)
	assert.Equal(t, 8, res.NewSerial)
	assert.JSONEq(t, stateBody, string(res.Backup))

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "abc", uploads[0].Attributes.Lineage)
	assert.Equal(t, 8, uploads[0].Attributes.Serial)
	assert.Empty(t, uploads[0].State.Resources)

	assert.Equal(t, []tfetest.Action{
		{Target: "ws-123", Name: "lock"},
		{Target: "ws-123", Name: "upload"},
		{Target: "ws-123", Name: "unlock"},
	}, srv.Actions())
	assert.False(t, srv.Locked("ws-123"))
}

func TestStatePurgeAgainstAPIUploadRejected(t *testing.T) {
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-123", "net", 1)
	var state tfe.StateFile
	require.NoError(t, json.Unmarshal([]byte(stateBody), &state))
	srv.SetState("ws-123", state)
	srv.Fail(http.MethodPost, "/api/v2/workspaces/ws-123/state-versions", http.StatusUnprocessableEntity)
	c := srv.Client(t)

	res, err := purge.NewStatePurger(c, typed("ws-123")).Purge(context.Background(), "ws-123")
	require.Error(t, err)
	assert.Equal(t, purge.OutcomeFailedUnlocked, res.Outcome)
	assert.False(t, srv.Locked("ws-123"))
	assert.Equal(t, []tfetest.Action{
		{Target: "ws-123", Name: "lock"},
		{Target: "ws-123", Name: "unlock"},
	}, srv.Actions())
}

func TestStatePurgeAgainstAPILockedWorkspace(t *testing.T) {
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-123", "net", 1)
	var state tfe.StateFile
	require.NoError(t, json.Unmarshal([]byte(stateBody), &state))
	srv.SetState("ws-123", state)
	srv.SetLocked("ws-123", true)
	c := srv.Client(t)

	res, err := purge.NewStatePurger(c, typed("ws-123")).Purge(context.Background(), "ws-123")
	var lce *tfe.LockConflictError
	require.True(t, errors.As(err, &lce))
	assert.Equal(t, purge.OutcomeFailedBeforeLock, res.Outcome)
	assert.Empty(t, srv.Actions())
	assert.True(t, srv.Locked("ws-123"))
}

func TestStatePurgeRollsBackUncertainLock(t *testing.T) {
	lockErr := fmt.Errorf("request lock of workspace ws-123: %w: %w", tfe.ErrOutcomeUnknown, context.DeadlineExceeded)
	unlockErr := errors.New("unlock refused")

	tests := []struct {
		name         string
		unlock       error
		wantOutcome  purge.Outcome
		wantTaken    bool
		wantReleased bool
		check        func(t *testing.T, err error)
	}{
		{
			name:         "lock was taken and is released",
			wantOutcome:  purge.OutcomeFailedUnlocked,
			wantTaken:    true,
			wantReleased: true,
			check: func(t *testing.T, err error) {
				var uerr *lock.UncertainLockError
				require.True(t, errors.As(err, &uerr))
				assert.True(t, uerr.Released)
				assert.False(t, uerr.Held())
			},
		},
		{
			name:        "lock was never taken",
			unlock:      &tfe.ClientError{Status: http.StatusConflict, Resource: "unlock of workspace ws-123"},
			wantOutcome: purge.OutcomeFailedBeforeLock,
			check: func(t *testing.T, err error) {
				var uerr *lock.UncertainLockError
				require.True(t, errors.As(err, &uerr))
				assert.False(t, uerr.Released)
				assert.False(t, uerr.Held())
			},
		},
		{
			name:        "rollback fails",
			unlock:      unlockErr,
			wantOutcome: purge.OutcomeLockHeld,
			wantTaken:   true,
			check: func(t *testing.T, err error) {
				var ufe *purge.UnlockFailureError
				require.True(t, errors.As(err, &ufe))
				assert.ErrorIs(t, err, unlockErr)
				assert.ErrorIs(t, err, tfe.ErrOutcomeUnknown)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			api := mocks.NewMockStateAPI(ctrl)
			api.EXPECT().GetWorkspace(gomock.Any(), "ws-123").Return(workspace("ws-123", ""), nil)
			api.EXPECT().GetCurrentStateVersion(gomock.Any(), "ws-123").Return(stateVersion(), nil)
			api.EXPECT().LockWorkspace(gomock.Any(), "ws-123", purge.LockReason).Return(lockErr)
			api.EXPECT().UnlockWorkspace(gomock.Any(), "ws-123").Return(tt.unlock).Times(1)

			res, err := purge.NewStatePurger(api, typed("ws-123")).Purge(context.Background(), "ws-123")
			require.Error(t, err)
			assert.ErrorIs(t, err, tfe.ErrOutcomeUnknown)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, purge.StateFailed, res.State)
			assert.Equal(t, tt.wantTaken, res.LockTaken)
			assert.Equal(t, tt.wantReleased, res.LockReleased)
			assert.Nil(t, res.Backup)
			tt.check(t, err)
		})
	}
}

func TestStatePurgeAgainstAPILockResponseLost(t *testing.T) {
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-123", "net", 1)
	var state tfe.StateFile
	require.NoError(t, json.Unmarshal([]byte(stateBody), &state))
	srv.SetState("ws-123", state)
	srv.Stall(http.MethodPost, "/api/v2/workspaces/ws-123/actions/lock", 500*time.Millisecond)
	c := srv.Client(t, func(cfg *tfe.Config) { cfg.Timeout = 100 * time.Millisecond })

	res, err := purge.NewStatePurger(c, typed("ws-123")).Purge(context.Background(), "ws-123")
	require.Error(t, err)
	assert.ErrorIs(t, err, tfe.ErrOutcomeUnknown)
	assert.Equal(t, purge.OutcomeFailedUnlocked, res.Outcome)
	assert.True(t, res.LockReleased)

	assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/v2/workspaces/ws-123/actions/lock"))
	assert.Equal(t, []tfetest.Action{
		{Target: "ws-123", Name: "lock"},
		{Target: "ws-123", Name: "unlock"},
	}, srv.Actions())
	assert.False(t, srv.Locked("ws-123"))
	assert.Empty(t, srv.Uploads())
}
