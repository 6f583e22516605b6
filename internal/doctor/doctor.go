// Package doctor runs environment health checks: is tmux installed, does
// the session exist, is the agent alive inside it, is the lock file
// writable. Each check reports independently so a user can see exactly
// which precondition is broken before a pipe run fails mid-way.
package doctor

import (
	"fmt"
	"os"

	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/lock"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

// Status is the outcome of one check.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warn"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is one check's report.
type Result struct {
	Name    string
	Status  Status
	Message string
}

// Check is a single health probe.
type Check interface {
	Name() string
	Run(cfg *config.Config, tm *tmux.Tmux) Result
}

// All returns the standard check set in run order.
func All() []Check {
	return []Check{
		tmuxCheck{},
		sessionCheck{},
		agentCheck{},
		lockCheck{},
	}
}

// Run executes every check and reports whether all passed.
func Run(cfg *config.Config, tm *tmux.Tmux, checks []Check) ([]Result, bool) {
	results := make([]Result, 0, len(checks))
	healthy := true
	for _, c := range checks {
		r := c.Run(cfg, tm)
		if r.Status == StatusError {
			healthy = false
		}
		results = append(results, r)
	}
	return results, healthy
}

type tmuxCheck struct{}

func (tmuxCheck) Name() string { return "tmux-installed" }

func (tmuxCheck) Run(cfg *config.Config, tm *tmux.Tmux) Result {
	if !tmux.IsAvailable() {
		return Result{Name: "tmux-installed", Status: StatusError,
			Message: "tmux not found in PATH"}
	}
	return Result{Name: "tmux-installed", Status: StatusOK, Message: "tmux found"}
}

type sessionCheck struct{}

func (sessionCheck) Name() string { return "session" }

func (sessionCheck) Run(cfg *config.Config, tm *tmux.Tmux) Result {
	exists, err := tm.HasSession(cfg.Session)
	if err != nil {
		return Result{Name: "session", Status: StatusError,
			Message: fmt.Sprintf("cannot query tmux: %v", err)}
	}
	if !exists {
		// Not an error: the next run creates it.
		return Result{Name: "session", Status: StatusWarning,
			Message: fmt.Sprintf("session %q does not exist yet", cfg.Session)}
	}
	return Result{Name: "session", Status: StatusOK,
		Message: fmt.Sprintf("session %q exists", cfg.Session)}
}

type agentCheck struct{}

func (agentCheck) Name() string { return "agent" }

func (agentCheck) Run(cfg *config.Config, tm *tmux.Tmux) Result {
	exists, err := tm.HasSession(cfg.Session)
	if err != nil || !exists {
		return Result{Name: "agent", Status: StatusWarning,
			Message: "no session to inspect"}
	}
	if !tm.IsAgentRunning(cfg.Session, cfg.AgentProcesses) {
		cmd, _ := tm.PaneCommand(cfg.Session)
		return Result{Name: "agent", Status: StatusWarning,
			Message: fmt.Sprintf("agent not running (pane shows %q); next run launches it", cmd)}
	}
	return Result{Name: "agent", Status: StatusOK, Message: "agent is running"}
}

type lockCheck struct{}

func (lockCheck) Name() string { return "lock-file" }

func (lockCheck) Run(cfg *config.Config, tm *tmux.Tmux) Result {
	path, err := lock.Path(cfg.Session)
	if err != nil {
		return Result{Name: "lock-file", Status: StatusError,
			Message: fmt.Sprintf("lock dir not writable: %v", err)}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{Name: "lock-file", Status: StatusError,
			Message: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	f.Close()
	return Result{Name: "lock-file", Status: StatusOK,
		Message: fmt.Sprintf("lock file %s writable", path)}
}
