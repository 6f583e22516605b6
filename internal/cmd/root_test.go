package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/volker-fr/claude-pipe/internal/agent"
	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/detect"
	"github.com/volker-fr/claude-pipe/internal/lock"
	"github.com/volker-fr/claude-pipe/internal/sanitize"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

func TestResolvePrompt(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		stdin       string
		interactive bool
		want        string
		wantErr     bool
	}{
		{"args joined", []string{"what", "is", "6*7"}, "", true, "what is 6*7", false},
		{"args win over stdin", []string{"from args"}, "from stdin", false, "from args", false},
		{"piped stdin", nil, "summarize this\ndiff\n", false, "summarize this\ndiff", false},
		{"interactive no args", nil, "", true, "", true},
		{"piped but empty", nil, "  \n", false, "", true},
		{"empty args", []string{""}, "", true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePrompt(tt.args, strings.NewReader(tt.stdin), tt.interactive)
			if tt.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Fatalf("resolvePrompt() error = %v, want ErrUsage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolvePrompt() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"no tmux", tmux.ErrNotInstalled, ExitNoTmux},
		{"start timeout", agent.ErrStartTimeout, ExitStartTimeout},
		{"submit failed", agent.ErrSubmitFailed, ExitSubmitFailed},
		{"response timeout", detect.ErrTimeout, ExitTimeout},
		{"empty response", sanitize.ErrEmptyResponse, ExitEmpty},
		{"lock busy", lock.ErrBusy, ExitLockBusy},
		{"usage", ErrUsage, ExitUsage},
		{"bad config", config.ErrInvalid, ExitUsage},
		{"unknown", errors.New("mystery"), ExitUsage},
		{"wrapped", fmt.Errorf("running: %w", detect.ErrTimeout), ExitTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	if err := rootCmd.PersistentFlags().Set("session", "review"); err != nil {
		t.Fatalf("setting session flag: %v", err)
	}
	if err := rootCmd.Flags().Set("idle-timeout", "8s"); err != nil {
		t.Fatalf("setting idle-timeout flag: %v", err)
	}

	cfg := config.Default()
	applyFlagOverrides(cfg)

	if cfg.Session != "review" {
		t.Errorf("Session = %q, want review", cfg.Session)
	}
	if cfg.IdleTimeout.Duration.String() != "8s" {
		t.Errorf("IdleTimeout = %s, want 8s", cfg.IdleTimeout.Duration)
	}
	// Unset flags leave file/default values alone.
	if cfg.AgentCommand != config.DefaultAgentCommand {
		t.Errorf("AgentCommand = %q, want default", cfg.AgentCommand)
	}
}
