// Package cmd implements the claude-pipe command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/pipe"
	"github.com/volker-fr/claude-pipe/internal/style"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// ErrUsage indicates the invocation itself was wrong (no prompt, bad
// flag combination). Maps to exit code 1 without a stack of context.
var ErrUsage = errors.New("usage error")

// Flags for the root command.
var (
	flagVerbose     bool
	flagSession     string
	flagAgent       string
	flagSocket      string
	flagConfig      string
	flagIdleTimeout time.Duration
	flagMaxWait     time.Duration
	flagNoLock      bool
)

var rootCmd = &cobra.Command{
	Use:   "claude-pipe [flags] <message...>",
	Short: "Pipe a prompt through a persistent Claude session and print the answer",
	Long: `Send a prompt to a Claude CLI agent running in a persistent tmux
session and print only the final answer on stdout.

The session survives across invocations, so the agent stays warm and no
API-billed headless mode is needed. Diagnostics go to stderr; stdout
carries exactly the answer, making the output safe to pipe.

Examples:
  claude-pipe "what is 6 times 7"
  git diff | claude-pipe -v "summarize this diff"
  claude-pipe --session review --max-wait 10m "review main.go"`,
	Version:       Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.RunE = runRoot
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print progress diagnostics on stderr")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "tmux session name (default \"claude-pipe\")")
	rootCmd.PersistentFlags().StringVar(&flagAgent, "agent", "", "Agent launch command (default \"claude\")")
	rootCmd.PersistentFlags().StringVar(&flagSocket, "socket", "", "Isolated tmux socket name (tmux -L)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default ~/.config/claude-pipe/config.toml)")
	rootCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Output quiescence treated as completion (default 5s)")
	rootCmd.Flags().DurationVar(&flagMaxWait, "max-wait", 0, "Hard ceiling on one response (default 5m)")
	rootCmd.Flags().BoolVar(&flagNoLock, "no-lock", false, "Skip the advisory session lock")
}

// Execute runs the command and exits with a code distinguishing the
// failure kind.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	log := style.NewLogger(flagVerbose)
	log.Errorf("%v", err)
	os.Exit(ExitCode(err))
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig, flagConfig != "")
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	prompt, err := resolvePrompt(args, cmd.InOrStdin(), stdinIsTerminal())
	if err != nil {
		return err
	}

	log := style.NewLogger(flagVerbose)
	p := pipe.New(cfg, log, !flagNoLock)
	answer, err := p.Run(context.Background(), prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

// applyFlagOverrides lays explicitly set flags over the file config.
func applyFlagOverrides(cfg *config.Config) {
	pf := rootCmd.PersistentFlags()
	if pf.Changed("session") {
		cfg.Session = flagSession
	}
	if pf.Changed("agent") {
		cfg.AgentCommand = flagAgent
	}
	if pf.Changed("socket") {
		cfg.Socket = flagSocket
	}
	f := rootCmd.Flags()
	if f.Changed("idle-timeout") {
		cfg.IdleTimeout = config.Duration{Duration: flagIdleTimeout}
	}
	if f.Changed("max-wait") {
		cfg.MaxWait = config.Duration{Duration: flagMaxWait}
	}
}

// resolvePrompt takes the prompt from arguments, or from stdin when it
// is piped. Interactive stdin with no arguments is a usage error, not a
// hang.
func resolvePrompt(args []string, stdin io.Reader, interactive bool) (string, error) {
	var prompt string
	switch {
	case len(args) > 0:
		prompt = strings.Join(args, " ")
	case !interactive:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("%w: reading stdin: %v", ErrUsage, err)
		}
		prompt = strings.TrimSpace(string(data))
	default:
		return "", fmt.Errorf("%w: supply a message as arguments or on stdin", ErrUsage)
	}
	if prompt == "" {
		return "", fmt.Errorf("%w: empty message", ErrUsage)
	}
	return prompt, nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
