package cmd

import (
	"github.com/spf13/cobra"

	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/style"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Kill the persistent session so the next run starts fresh",
	Long: `Kill the tmux session claude-pipe runs the agent in. The next
invocation recreates it with a cold agent. Use this when the agent is
wedged or its accumulated context should be fully discarded, beyond
what the per-run conversation reset does.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig, flagConfig != "")
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := style.NewLogger(flagVerbose)
	tm := tmux.NewWithSocket(cfg.Socket)
	if err := tm.KillSession(cfg.Session); err != nil {
		return err
	}
	log.Successf("session %q reset", cfg.Session)
	return nil
}
