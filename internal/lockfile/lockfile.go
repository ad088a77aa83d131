// Package lockfile guards a leadchat state directory against concurrent use.
// Two instances sharing one SQLite database would race each other, so the
// first instance takes an exclusive flock on a marker file and later ones
// fail fast with a message naming the holder. The kernel drops the flock
// when the process exits, so a crash never leaves the directory locked.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockFileName is created inside the state directory.
const LockFileName = "leadchat.lock"

// Lock is a held state-directory lock. Release it on shutdown.
type Lock struct {
	file *os.File
	path string
	held bool
}

// Path returns the location of the lock file.
func (l *Lock) Path() string { return l.path }

// AcquireLock takes an exclusive lock on stateDir, creating the directory if
// needed. When another process holds the lock, the error is a *LockError
// describing the holder.
func AcquireLock(stateDir string) (*Lock, error) {
	path := filepath.Join(stateDir, LockFileName)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("AcquireLock: create state dir %s: %w", stateDir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("AcquireLock: open %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		holder := describeHolder(path)
		slog.Error("AcquireLock: state directory already locked",
			"path", path, "holder", holder, "error", err)
		return nil, &LockError{Path: path, Holder: holder, Cause: err}
	}

	stamp := fmt.Sprintf("pid=%d\nstarted=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	if _, err := f.WriteString(stamp); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return nil, fmt.Errorf("AcquireLock: stamp %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		slog.Warn("AcquireLock: sync failed", "path", path, "error", err)
	}

	slog.Info("AcquireLock: locked state directory", "path", path, "pid", os.Getpid())
	return &Lock{file: f, path: path, held: true}, nil
}

// Release drops the lock and removes the marker file. Safe to call twice.
func (l *Lock) Release() error {
	if !l.held || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Error("Release: unlock failed", "path", l.path, "error", err)
	}
	if err := l.file.Close(); err != nil {
		slog.Error("Release: close failed", "path", l.path, "error", err)
	}
	if err := os.Remove(l.path); err != nil {
		slog.Error("Release: remove failed", "path", l.path, "error", err)
	}
	l.held = false
	l.file = nil
	slog.Info("Release: unlocked state directory", "path", l.path)
	return nil
}

// LockError reports a state directory held by another process.
type LockError struct {
	Path   string
	Holder string
	Cause  error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("state directory is locked by another leadchat instance (lock file: %s)", e.Path)
	if e.Holder != "" {
		msg += fmt.Sprintf("; holder: %s", e.Holder)
	}
	msg += fmt.Sprintf("; if no other instance is running, remove the stale lock with: rm %s", e.Path)
	return msg
}

func (e *LockError) Unwrap() error { return e.Cause }

// describeHolder summarizes the process recorded in an existing lock file.
func describeHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unreadable lock file"
	}
	pid, started := parseLockStamp(string(data))
	if pid == 0 {
		return "no process information recorded"
	}
	state := "running"
	if !processAlive(pid) {
		state = "not running, lock is stale"
	}
	if started != "" {
		return fmt.Sprintf("PID %d (%s, started %s)", pid, state, started)
	}
	return fmt.Sprintf("PID %d (%s)", pid, state)
}

// parseLockStamp reads the pid= and started= lines of a lock stamp.
func parseLockStamp(content string) (pid int, started string) {
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			if n, err := strconv.Atoi(value); err == nil {
				pid = n
			}
		case "started":
			started = value
		}
	}
	return pid, started
}

// processAlive probes a PID with signal 0.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
