package lock_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/hcpctl/internal/lock"
	"github.com/mattjoyce/hcpctl/internal/lock/mocks"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

func TestAcquireAndReleaseOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().LockWorkspace(gomock.Any(), "ws-1", "purge").Return(nil)
	locker.EXPECT().UnlockWorkspace(gomock.Any(), "ws-1").Return(nil).Times(1)

	h, err := lock.Acquire(context.Background(), locker, "ws-1", "purge")
	require.NoError(t, err)
	assert.False(t, h.Released())

	require.NoError(t, h.Release(context.Background()))
	require.NoError(t, h.Release(context.Background()))
	assert.True(t, h.Released())
}

func TestAcquireConflictReturnsNoHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	conflict := errors.New("409")
	locker.EXPECT().LockWorkspace(gomock.Any(), "ws-1", "").Return(conflict)

	h, err := lock.Acquire(context.Background(), locker, "ws-1", "")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, conflict)
	assert.NoError(t, h.Release(context.Background()))
}

func TestReleaseIgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().LockWorkspace(gomock.Any(), "ws-1", "").Return(nil)
	locker.EXPECT().UnlockWorkspace(gomock.Any(), "ws-1").DoAndReturn(func(ctx context.Context, _ string) error {
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	h, err := lock.Acquire(ctx, locker, "ws-1", "")
	require.NoError(t, err)
	cancel()
	assert.NoError(t, h.Release(ctx))
}

func TestReleaseFailureIsSticky(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().LockWorkspace(gomock.Any(), "ws-1", "").Return(nil)
	locker.EXPECT().UnlockWorkspace(gomock.Any(), "ws-1").Return(errors.New("boom")).Times(1)

	h, err := lock.Acquire(context.Background(), locker, "ws-1", "")
	require.NoError(t, err)
	first := h.Release(context.Background())
	require.Error(t, first)
	assert.Contains(t, first.Error(), "ws-1")
	assert.Equal(t, first, h.Release(context.Background()))
	assert.False(t, h.Released())
}

func TestAcquireRollsBackUncertainLock(t *testing.T) {
	lockErr := fmt.Errorf("request lock: %w: %w", tfe.ErrOutcomeUnknown, context.DeadlineExceeded)
	refused := errors.New("unlock refused")

	tests := []struct {
		name         string
		unlock       error
		wantReleased bool
		wantHeld     bool
	}{
		{"taken then released", nil, true, false},
		{"never taken", &tfe.ClientError{Status: http.StatusConflict, Resource: "unlock"}, false, false},
		{"rollback refused", refused, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			locker := mocks.NewMockLocker(ctrl)
			locker.EXPECT().LockWorkspace(gomock.Any(), "ws-1", "").Return(lockErr)
			locker.EXPECT().UnlockWorkspace(gomock.Any(), "ws-1").Return(tt.unlock).Times(1)

			h, err := lock.Acquire(context.Background(), locker, "ws-1", "")
			assert.Nil(t, h)
			var uerr *lock.UncertainLockError
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, tt.wantReleased, uerr.Released)
			assert.Equal(t, tt.wantHeld, uerr.Held())
			assert.ErrorIs(t, err, tfe.ErrOutcomeUnknown)
			if tt.wantHeld {
				assert.ErrorIs(t, err, refused)
			}
		})
	}
}
