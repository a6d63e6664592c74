package tfe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-3", 0},
		{"soon", 0},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{now.Add(-10 * time.Second).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.in, now))
		})
	}
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "a; b", errorDetail([]byte(`{"errors":[{"detail":"a"},{"title":"b"}]}`)))
	assert.Equal(t, "plain text", errorDetail([]byte("  plain text \n")))
	long := strings.Repeat("x", maxErrorDetail+10)
	assert.Equal(t, strings.Repeat("x", maxErrorDetail)+"...", errorDetail([]byte(long)))
}

func TestResultErr(t *testing.T) {
	header := http.Header{"Retry-After": []string{"4"}}
	res := classify(http.StatusTooManyRequests, header, nil)
	res.Attempts = 3
	var rl *RateLimitError
	assert.True(t, errors.As(res.Err("runs"), &rl))
	assert.Equal(t, 4*time.Second, rl.RetryAfter)
	assert.Contains(t, rl.Error(), "after 3 attempts")

	assert.NoError(t, classify(http.StatusNoContent, nil, nil).Err("x"))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"attempt timeout", fmt.Errorf("get: %w", context.DeadlineExceeded), true},
		{"eof", io.ErrUnexpectedEOF, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"net timeout", timeoutErr{}, true},
		{"dns temporary", &net.DNSError{Err: "x", IsTemporary: true}, true},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"plain", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestPartialBatchErrorMessageIsSorted(t *testing.T) {
	err := &PartialBatchError{
		Operation: "purge runs",
		Succeeded: []string{"run-1"},
		Failed:    map[string]error{"run-3": errors.New("c"), "run-2": errors.New("b")},
	}
	assert.Equal(t, "purge runs: 2 of 3 failed (run-2: b; run-3: c)", err.Error())
}
