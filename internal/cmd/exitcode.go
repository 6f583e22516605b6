package cmd

import (
	"errors"

	"github.com/volker-fr/claude-pipe/internal/agent"
	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/detect"
	"github.com/volker-fr/claude-pipe/internal/lock"
	"github.com/volker-fr/claude-pipe/internal/sanitize"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

// Exit codes, one per failure kind, so scripts can tell a timeout from
// a missing tmux without parsing stderr.
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitNoTmux       = 2
	ExitStartTimeout = 3
	ExitSubmitFailed = 4
	ExitTimeout      = 5
	ExitEmpty        = 6
	ExitLockBusy     = 7
)

// ExitCode maps an error to its exit code. Unknown errors count as
// usage/config failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, tmux.ErrNotInstalled):
		return ExitNoTmux
	case errors.Is(err, agent.ErrStartTimeout):
		return ExitStartTimeout
	case errors.Is(err, agent.ErrSubmitFailed):
		return ExitSubmitFailed
	case errors.Is(err, detect.ErrTimeout):
		return ExitTimeout
	case errors.Is(err, sanitize.ErrEmptyResponse):
		return ExitEmpty
	case errors.Is(err, lock.ErrBusy):
		return ExitLockBusy
	case errors.Is(err, ErrUsage), errors.Is(err, config.ErrInvalid):
		return ExitUsage
	default:
		return ExitUsage
	}
}
