// Package agent launches and feeds the conversational agent inside a
// tmux pane: ensuring it is running, resetting its conversation, and
// submitting prompts. It never inspects the agent beyond what the pane
// shows.
package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/detect"
	"github.com/volker-fr/claude-pipe/internal/sanitize"
)

// Common errors.
var (
	// ErrStartTimeout: the agent never presented its input prompt after launch.
	ErrStartTimeout = errors.New("agent did not start in time")
	// ErrSubmitFailed: input could not be delivered to the pane.
	ErrSubmitFailed = errors.New("failed to submit prompt")
)

// promptVisibleLines is how many trailing pane lines are scanned for
// the input prompt. The prompt sits just above the status bar, never
// deeper than this.
const promptVisibleLines = 8

// clearDirective resets the agent's conversation so token usage does
// not grow across invocations.
const clearDirective = "/clear"

// clearPromptWait bounds the post-clear prompt re-check. The clear is
// fire-and-forget; this only avoids typing into a still-redrawing UI.
const clearPromptWait = 10 * time.Second

// scrollbackLines is how much history each capture includes. Responses
// longer than the visible pane scroll; the baseline and every
// completion capture must cover them.
const scrollbackLines = 10000

// Pane is the slice of tmux the agent driver needs. *tmux.Tmux
// satisfies it; tests use scripted fakes.
type Pane interface {
	CapturePane(session string, lines int) (string, error)
	CapturePaneVisible(session string) (string, error)
	SendKeys(session, text string, debounce time.Duration) error
	SendBuffer(session, text string, debounce time.Duration) error
	IsAgentRunning(session string, processNames []string) bool
}

// Agent drives one agent process inside one tmux session.
type Agent struct {
	pane    Pane
	session string
	cfg     *config.Config

	sleep func(time.Duration)
}

// New creates an Agent for the given session.
func New(pane Pane, session string, cfg *config.Config) *Agent {
	return &Agent{pane: pane, session: session, cfg: cfg, sleep: time.Sleep}
}

// EnsureRunning launches the agent if the pane is still a shell.
// Idempotent: an already-running agent is a no-op. After launching it
// waits, bounded, for the agent's input prompt to appear — a non-empty
// pane alone could still be the shell echoing the command.
func (a *Agent) EnsureRunning() error {
	if a.pane.IsAgentRunning(a.session, a.cfg.AgentProcesses) {
		return nil
	}
	if err := a.pane.SendKeys(a.session, a.cfg.AgentCommand, a.cfg.SubmitDebounce.Duration); err != nil {
		return fmt.Errorf("%w: launching %q: %v", ErrStartTimeout, a.cfg.AgentCommand, err)
	}
	a.sleep(a.cfg.StartupWait.Duration)
	if !a.waitForPrompt(a.cfg.PromptWait.Duration) {
		return fmt.Errorf("%w: no input prompt within %s of launching %q",
			ErrStartTimeout, a.cfg.PromptWait.Duration, a.cfg.AgentCommand)
	}
	return nil
}

// ClearConversation sends the reset directive and lets it settle.
// Fire-and-forget: no confirmation exists beyond the prompt redrawing.
func (a *Agent) ClearConversation() error {
	if err := a.pane.SendKeys(a.session, clearDirective, a.cfg.SubmitDebounce.Duration); err != nil {
		return fmt.Errorf("%w: sending %s: %v", ErrSubmitFailed, clearDirective, err)
	}
	a.sleep(a.cfg.ClearSettle.Duration)
	a.waitForPrompt(clearPromptWait)
	return nil
}

// Submit delivers the prompt with the marker instruction appended.
// Multi-line prompts go through a paste buffer so embedded newlines do
// not submit mid-text; single-line prompts are typed literally.
func (a *Agent) Submit(prompt string, marker detect.Marker) error {
	text := prompt + marker.Instruction()
	var err error
	if strings.Contains(text, "\n") {
		err = a.pane.SendBuffer(a.session, text, a.cfg.SubmitDebounce.Duration)
	} else {
		err = a.pane.SendKeys(a.session, text, a.cfg.SubmitDebounce.Duration)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	return nil
}

// Baseline captures the pane with scrollback at submission time. The
// completion detector compares marker counts against it so leftovers
// from previous runs never register as completion.
func (a *Agent) Baseline() (string, error) {
	return a.pane.CapturePane(a.session, scrollbackLines)
}

// Capture returns a fresh scrollback-inclusive snapshot; this is the
// detector's capture function.
func (a *Agent) Capture() (string, error) {
	return a.pane.CapturePane(a.session, scrollbackLines)
}

// PromptVisible reports whether the agent's input prompt is on screen.
func (a *Agent) PromptVisible() bool {
	snapshot, err := a.pane.CapturePaneVisible(a.session)
	if err != nil {
		return false
	}
	return PromptInSnapshot(snapshot)
}

// waitForPrompt polls until the input prompt appears or the timeout
// elapses. Returns whether the prompt was seen.
func (a *Agent) waitForPrompt(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if a.PromptVisible() {
			return true
		}
		a.sleep(a.cfg.PollInterval.Duration)
	}
	return false
}

// PromptInSnapshot reports whether a pane snapshot shows an empty input
// prompt: a trailing line that is just the prompt character, or the
// prompt character plus one space. A prompt followed by typed text does
// not count — the agent is not idle then. Non-breaking spaces are
// normalized first; the agent UI pads its prompt with NBSP.
func PromptInSnapshot(snapshot string) bool {
	lines := strings.Split(snapshot, "\n")
	start := len(lines) - promptVisibleLines
	if start < 0 {
		start = 0
	}
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(strings.ReplaceAll(line, " ", " "))
		if strings.HasPrefix(trimmed, sanitize.PromptChar) && utf8.RuneCountInString(trimmed) <= 2 {
			return true
		}
	}
	return false
}
