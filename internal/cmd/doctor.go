package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/doctor"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that tmux, the session, and the agent are usable",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig, flagConfig != "")
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	tm := tmux.NewWithSocket(cfg.Socket)
	results, healthy := doctor.Run(cfg, tm, doctor.All())
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-6s %s\n", r.Name, r.Status, r.Message)
	}
	if !healthy {
		return fmt.Errorf("%w: environment checks failed", ErrUsage)
	}
	return nil
}
