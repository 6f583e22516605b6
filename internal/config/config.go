// Package config holds the tunables for a claude-pipe invocation.
//
// Defaults match the behavior of driving Claude Code interactively:
// a persistent "claude-pipe" tmux session, the "claude" launch command,
// and timing constants tuned for its TUI rendering cadence. A TOML file
// at ~/.config/claude-pipe/config.toml can override any field; flags
// override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Default timing constants.
const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultSubmitDebounce = 600 * time.Millisecond
	DefaultClearSettle    = 1 * time.Second
	DefaultStartupWait    = 5 * time.Second
	DefaultPromptWait     = 30 * time.Second
	DefaultResponseDelay  = 3 * time.Second
	DefaultIdleTimeout    = 5 * time.Second
	DefaultMarkerGrace    = 1 * time.Second
	DefaultMaxWait        = 300 * time.Second
)

// DefaultSession is the tmux session name shared across invocations.
const DefaultSession = "claude-pipe"

// DefaultAgentCommand launches the agent inside the session.
const DefaultAgentCommand = "claude"

// ErrInvalid indicates a config value that cannot work.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration that unmarshals from TOML strings like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Config is the full configuration surface.
type Config struct {
	// Session is the tmux session name. At most one session with this
	// name exists; creation is idempotent.
	Session string `toml:"session"`

	// Socket optionally isolates claude-pipe on its own tmux server
	// (tmux -L flag). Empty means the default server.
	Socket string `toml:"socket"`

	// AgentCommand is typed into the pane to launch the agent when it
	// is not already running.
	AgentCommand string `toml:"agent_command"`

	// AgentProcesses are substrings matched against the pane's
	// foreground command to decide whether the agent is running.
	AgentProcesses []string `toml:"agent_processes"`

	// PollInterval is the pane capture cadence while waiting.
	PollInterval Duration `toml:"poll_interval"`

	// SubmitDebounce is the pause between pasting text and pressing
	// Enter, so Enter never races the paste.
	SubmitDebounce Duration `toml:"submit_debounce"`

	// ClearSettle is how long to let the agent process the reset
	// directive before continuing.
	ClearSettle Duration `toml:"clear_settle"`

	// StartupWait is the fixed pause after launching the agent before
	// prompt polling begins.
	StartupWait Duration `toml:"startup_wait"`

	// PromptWait bounds how long to poll for the agent's input prompt
	// after launch.
	PromptWait Duration `toml:"prompt_wait"`

	// ResponseDelay is the pause after submitting a prompt before the
	// first completion poll; the agent never answers faster than this
	// and early polls would only see the echo.
	ResponseDelay Duration `toml:"response_delay"`

	// IdleTimeout is how long pane content must stay unchanged before
	// the response is considered complete without a marker.
	IdleTimeout Duration `toml:"idle_timeout"`

	// MarkerGrace is the pause after the end marker appears before the
	// final capture, letting trailing output flush.
	MarkerGrace Duration `toml:"marker_grace"`

	// MaxWait is the hard ceiling on a single response.
	MaxWait Duration `toml:"max_wait"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Session:        DefaultSession,
		AgentCommand:   DefaultAgentCommand,
		AgentProcesses: []string{"node", "claude"},
		PollInterval:   Duration{DefaultPollInterval},
		SubmitDebounce: Duration{DefaultSubmitDebounce},
		ClearSettle:    Duration{DefaultClearSettle},
		StartupWait:    Duration{DefaultStartupWait},
		PromptWait:     Duration{DefaultPromptWait},
		ResponseDelay:  Duration{DefaultResponseDelay},
		IdleTimeout:    Duration{DefaultIdleTimeout},
		MarkerGrace:    Duration{DefaultMarkerGrace},
		MaxWait:        Duration{DefaultMaxWait},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "claude-pipe", "config.toml")
}

// Load reads a TOML config file over the defaults. A missing file at
// the default path is not an error; an explicitly requested path must
// exist.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Session == "" {
		return fmt.Errorf("%w: session name is empty", ErrInvalid)
	}
	if c.AgentCommand == "" {
		return fmt.Errorf("%w: agent command is empty", ErrInvalid)
	}
	if len(c.AgentProcesses) == 0 {
		return fmt.Errorf("%w: agent process list is empty", ErrInvalid)
	}
	for name, d := range map[string]time.Duration{
		"poll_interval": c.PollInterval.Duration,
		"idle_timeout":  c.IdleTimeout.Duration,
		"max_wait":      c.MaxWait.Duration,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, name)
		}
	}
	if c.MaxWait.Duration < c.IdleTimeout.Duration {
		return fmt.Errorf("%w: max_wait is shorter than idle_timeout", ErrInvalid)
	}
	return nil
}
