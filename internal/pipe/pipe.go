// Package pipe runs one full request cycle: ensure the session and
// agent exist, clear the conversation, submit the prompt, wait for
// completion, and sanitize the answer. Every failure is fatal to the
// invocation — the session itself is left intact for the next run.
package pipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/volker-fr/claude-pipe/internal/agent"
	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/detect"
	"github.com/volker-fr/claude-pipe/internal/lock"
	"github.com/volker-fr/claude-pipe/internal/sanitize"
	"github.com/volker-fr/claude-pipe/internal/style"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

// Pipe drives one prompt through a persistent agent session.
type Pipe struct {
	cfg     *config.Config
	tm      *tmux.Tmux
	log     *style.Logger
	useLock bool
}

// New creates a Pipe. useLock controls the advisory session lock;
// disabling it restores the original racy free-for-all for callers who
// coordinate externally.
func New(cfg *config.Config, log *style.Logger, useLock bool) *Pipe {
	return &Pipe{
		cfg:     cfg,
		tm:      tmux.NewWithSocket(cfg.Socket),
		log:     log,
		useLock: useLock,
	}
}

// Run submits the prompt and returns the clean answer. The tmux session
// and agent process survive the call — and survive cancellation — as a
// reusable external resource.
func (p *Pipe) Run(ctx context.Context, prompt string) (string, error) {
	if !tmux.IsAvailable() {
		return "", tmux.ErrNotInstalled
	}

	if p.useLock {
		sl, err := lock.New(p.cfg.Session)
		if err != nil {
			return "", err
		}
		lockCtx, cancel := context.WithTimeout(ctx, p.cfg.MaxWait.Duration)
		defer cancel()
		p.log.Logf("acquiring session lock…")
		if err := sl.Acquire(lockCtx); err != nil {
			return "", err
		}
		defer sl.Release()
	}

	p.log.Logf("connecting to tmux…")
	if err := p.tm.EnsureSession(p.cfg.Session); err != nil {
		return "", fmt.Errorf("ensuring session %q: %w", p.cfg.Session, err)
	}

	ag := agent.New(p.tm, p.cfg.Session, p.cfg)
	if !p.tm.IsAgentRunning(p.cfg.Session, p.cfg.AgentProcesses) {
		p.log.Logf("starting %s…", p.cfg.AgentCommand)
	}
	if err := ag.EnsureRunning(); err != nil {
		return "", err
	}

	p.log.Logf("clearing conversation…")
	if err := ag.ClearConversation(); err != nil {
		return "", err
	}

	baseline, err := ag.Baseline()
	if err != nil {
		return "", fmt.Errorf("%w: capturing baseline: %v", agent.ErrSubmitFailed, err)
	}

	marker := detect.NewMarker()
	p.log.Logf("sending prompt…")
	if err := ag.Submit(prompt, marker); err != nil {
		return "", err
	}

	p.log.Logf("waiting for response…")
	det := detect.New(ag.Capture,
		detect.WithPollInterval(p.cfg.PollInterval.Duration),
		detect.WithResponseDelay(p.cfg.ResponseDelay.Duration),
		detect.WithIdleTimeout(p.cfg.IdleTimeout.Duration),
		detect.WithMarkerGrace(p.cfg.MarkerGrace.Duration),
		detect.WithMaxWait(p.cfg.MaxWait.Duration),
		detect.WithNormalize(sanitize.NormalizeForIdle),
		detect.WithPromptCheck(agent.PromptInSnapshot),
	)
	res, err := det.Wait(marker, baseline)
	if err != nil {
		if res != nil && res.Outcome == detect.TimedOut {
			// Partial output is diagnostic material, never the answer.
			p.log.Logf("partial output at timeout:\n%s", res.Text)
		}
		return "", err
	}
	p.log.Successf("response complete via %s after %s", res.Outcome, res.Elapsed.Round(detect.DefaultPollInterval))

	answer, err := sanitize.Clean(res.Text, prompt, string(marker))
	if err != nil {
		if errors.Is(err, sanitize.ErrEmptyResponse) {
			p.log.Logf("raw snapshot before sanitization:\n%s", res.Text)
		}
		return "", err
	}
	return answer, nil
}
