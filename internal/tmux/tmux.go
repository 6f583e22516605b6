// Package tmux wraps the tmux session operations claude-pipe needs:
// idempotent session creation, literal key sending, pane capture, and
// foreground-process queries. Everything goes through the tmux binary
// as a subprocess; nothing here inspects the agent's internals.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotInstalled    = errors.New("tmux is not installed or not executable")
	ErrNoServer        = errors.New("no tmux server running")
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidName     = errors.New("invalid session name")
)

// validSessionNameRe rejects names that make tmux fail silently or
// produce cryptic errors (dots and colons are target syntax).
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateSessionName checks that a session name contains only safe characters.
func validateSessionName(name string) error {
	if name == "" || !validSessionNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidName, name, validSessionNameRe.String())
	}
	return nil
}

// Tmux wraps tmux operations, optionally on an isolated socket.
type Tmux struct {
	socketName string // tmux socket name (-L flag), empty = default server

	// sleep is swapped out in tests so debounce delays don't slow them.
	sleep func(time.Duration)
}

// New creates a Tmux wrapper on the default server socket.
func New() *Tmux {
	return NewWithSocket("")
}

// NewWithSocket creates a Tmux wrapper targeting a named socket.
// A dedicated socket isolates claude-pipe sessions from the user's
// personal tmux server.
func NewWithSocket(socket string) *Tmux {
	return &Tmux{socketName: socket, sleep: time.Sleep}
}

// IsAvailable reports whether the tmux binary can be found.
func IsAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// run executes a tmux command and returns stdout.
// All commands include -u for UTF-8 support regardless of locale.
func (t *Tmux) run(args ...string) (string, error) {
	allArgs := []string{"-u"}
	if t.socketName != "" {
		allArgs = append(allArgs, "-L", t.socketName)
	}
	allArgs = append(allArgs, args...)
	cmd := exec.Command("tmux", allArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrNotInstalled
		}
		return "", wrapError(err, stderr.String(), args)
	}
	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

// wrapError classifies tmux stderr into sentinel errors.
func wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "no current target") ||
		strings.Contains(stderr, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "duplicate session") {
		return ErrSessionExists
	}
	if strings.Contains(stderr, "session not found") ||
		strings.Contains(stderr, "can't find session") {
		return ErrSessionNotFound
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// EnsureSession creates the named session if it does not exist.
// Idempotent: an already-existing session is success. Create-first
// avoids the check-then-create race when two invocations start at once.
func (t *Tmux) EnsureSession(name string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	_, err := t.run("new-session", "-d", "-s", name)
	if err == nil || errors.Is(err, ErrSessionExists) {
		return nil
	}
	return err
}

// HasSession reports whether the named session exists. A missing
// server counts as "no session", not an error.
func (t *Tmux) HasSession(name string) (bool, error) {
	_, err := t.run("has-session", "-t", name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNoServer) || errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	return false, err
}

// KillSession terminates a session. Idempotent: already-gone is success.
func (t *Tmux) KillSession(name string) error {
	_, err := t.run("kill-session", "-t", name)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
		return nil
	}
	return err
}

// SendKeys types text literally into the pane, waits out the debounce,
// then presses Enter as a distinct control action. Sending Enter
// separately (never concatenated into the literal text) avoids any
// escaping ambiguity from special characters in the text.
func (t *Tmux) SendKeys(session, text string, debounce time.Duration) error {
	if _, err := t.run("send-keys", "-t", session, "-l", text); err != nil {
		return err
	}
	if debounce > 0 {
		t.sleep(debounce)
	}
	_, err := t.run("send-keys", "-t", session, "Enter")
	return err
}

// SendBuffer delivers multi-line text atomically via a tmux paste
// buffer, then presses Enter. Plain send-keys would let the host
// program treat every embedded newline as an immediate submission;
// paste-buffer -p uses bracketed paste so the whole block lands as one
// pending input.
func (t *Tmux) SendBuffer(session, text string, debounce time.Duration) error {
	if _, err := t.run("set-buffer", "-b", "claude-pipe", text); err != nil {
		return err
	}
	if _, err := t.run("paste-buffer", "-p", "-d", "-b", "claude-pipe", "-t", session); err != nil {
		return err
	}
	if debounce > 0 {
		t.sleep(debounce)
	}
	_, err := t.run("send-keys", "-t", session, "Enter")
	return err
}

// CapturePane returns the pane text including the last `lines` lines
// of scrollback history.
func (t *Tmux) CapturePane(session string, lines int) (string, error) {
	return t.run("capture-pane", "-p", "-t", session, "-S", fmt.Sprintf("-%d", lines))
}

// CapturePaneVisible returns only the visible pane text.
func (t *Tmux) CapturePaneVisible(session string) (string, error) {
	return t.run("capture-pane", "-p", "-t", session)
}

// PaneCommand returns the pane's current foreground command, lowercased.
func (t *Tmux) PaneCommand(session string) (string, error) {
	out, err := t.run("display-message", "-p", "-t", session, "#{pane_current_command}")
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

// IsAgentRunning reports whether the pane's foreground command matches
// one of the agent process names. Substring match: Claude Code shows up
// as "node", wrappers as "claude" or similar.
func (t *Tmux) IsAgentRunning(session string, processNames []string) bool {
	cmd, err := t.PaneCommand(session)
	if err != nil || cmd == "" {
		return false
	}
	for _, name := range processNames {
		if name != "" && strings.Contains(cmd, strings.ToLower(name)) {
			return true
		}
	}
	return false
}
