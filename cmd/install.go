package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/install"
	"github.com/sigma-eclipse/llmd/internal/state"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download the server binary and register the native messaging host",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(config.StatePath())

		msg, err := install.EnsureServer(cmd.Context(), store)
		if err != nil {
			return err
		}
		fmt.Println(msg)

		binPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to determine binary path: %w", err)
		}
		binPath, err = filepath.Abs(binPath)
		if err != nil {
			return fmt.Errorf("failed to resolve binary path: %w", err)
		}

		manifestPath, err := install.InstallHostManifest(binPath)
		if err != nil {
			return err
		}
		fmt.Printf("Installed native messaging manifest: %s\n", manifestPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
