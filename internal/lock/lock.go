// Package lock serializes invocations that share a tmux session.
//
// The session is shared mutable external state: two claude-pipe
// processes racing to send keys to the same pane would interleave
// keystrokes and corrupt both prompts. An advisory flock keyed by
// session name makes concurrent invocations queue instead. The lock
// file lives in the user cache dir and carries no state of its own.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrBusy indicates another invocation holds the session lock and the
// wait deadline passed.
var ErrBusy = errors.New("session is in use by another claude-pipe invocation")

// retryDelay is how often lock acquisition re-attempts while waiting.
const retryDelay = 250 * time.Millisecond

// SessionLock is an advisory lock for one session name.
type SessionLock struct {
	fl *flock.Flock
}

// Path returns the lock file path for a session name.
func Path(session string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "claude-pipe")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating lock dir: %w", err)
	}
	return filepath.Join(dir, session+".lock"), nil
}

// New creates a lock for the named session.
func New(session string) (*SessionLock, error) {
	path, err := Path(session)
	if err != nil {
		return nil, err
	}
	return &SessionLock{fl: flock.New(path)}, nil
}

// Acquire blocks until the lock is held or the context expires.
func (l *SessionLock) Acquire(ctx context.Context) error {
	ok, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w (lock file %s)", ErrBusy, l.fl.Path())
		}
		return fmt.Errorf("acquiring session lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrBusy, l.fl.Path())
	}
	return nil
}

// Release unlocks. Safe to call when not held.
func (l *SessionLock) Release() error {
	return l.fl.Unlock()
}
