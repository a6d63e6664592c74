package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Guard is a per-workspace local lock implemented via a PID file + flock(2).
// Keep the lock alive by keeping the file descriptor open.
type Guard struct {
	path string
	f    *os.File
}

// GuardPath returns the guard file for a workspace under dir.
func GuardPath(dir, workspaceID string) string {
	name := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(workspaceID)
	return filepath.Join(dir, name+".lock")
}

// AcquireGuard takes an exclusive non-blocking lock at path, writes the
// current PID into the file, and returns a handle that must be released.
// It fails at once if another process holds the guard.
func AcquireGuard(path string) (*Guard, error) {
	if path == "" {
		return nil, fmt.Errorf("guard path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create guard directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open guard file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		holder := readHolder(path)
		return nil, fmt.Errorf("another hcpctl process%s is already purging this workspace: %w", holder, err)
	}

	fail := func(step string, err error) (*Guard, error) {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
		return nil, fmt.Errorf("%s guard file: %w", step, err)
	}
	if err := f.Truncate(0); err != nil {
		return fail("truncate", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fail("seek", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fail("write", err)
	}
	if err := f.Sync(); err != nil {
		return fail("sync", err)
	}

	return &Guard{path: path, f: f}, nil
}

func readHolder(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	pid := strings.TrimSpace(string(b))
	if pid == "" {
		return ""
	}
	return " (pid " + pid + ")"
}

func (g *Guard) Path() string { return g.path }

func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	_ = unix.Flock(int(g.f.Fd()), unix.LOCK_UN)
	err := g.f.Close()
	g.f = nil
	return err
}
