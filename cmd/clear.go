package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/server"
	"github.com/sigma-eclipse/llmd/internal/state"
)

var clearCmd = &cobra.Command{
	Use:       "clear {binaries|models|all}",
	Short:     "Remove downloaded binaries and models",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"binaries", "models", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(config.StatePath())

		// A running server holds the binary and model files open.
		if pid := store.CheckServerRunning(); pid != nil {
			fmt.Printf("Stopping server (PID: %d)...\n", *pid)
			if err := server.NewManager(store).Stop(); err != nil {
				return err
			}
		}

		switch args[0] {
		case "binaries":
			return clearDir(config.BinDir(), "binaries")
		case "models":
			return clearDir(config.ModelsDir(), "models")
		case "all":
			if err := clearDir(config.BinDir(), "binaries"); err != nil {
				return err
			}
			return clearDir(config.ModelsDir(), "models")
		default:
			return fmt.Errorf("unknown target %q, expected binaries, models or all", args[0])
		}
	},
}

func clearDir(dir, what string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Printf("No %s to remove.\n", what)
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", what, err)
	}
	fmt.Printf("Removed %s.\n", what)
	return nil
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
