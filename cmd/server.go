package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/server"
	"github.com/sigma-eclipse/llmd/internal/state"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the inference server",
}

var serverCaptureOutput bool

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inference server with the configured settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}

		store := state.NewStore(config.StatePath())
		mgr := server.NewManager(store)

		cfg := server.ConfigFromSettings(settings)
		pid, err := mgr.Start(cfg, serverCaptureOutput)
		if err != nil {
			return err
		}

		fmt.Printf("Server started on port %d (PID: %d)\n", cfg.Port, pid)
		return nil
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the inference server",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(config.StatePath())
		mgr := server.NewManager(store)

		pid := store.CheckServerRunning()
		if err := mgr.Stop(); err != nil {
			return err
		}
		if pid == nil {
			fmt.Println("Server was not running.")
			return nil
		}
		fmt.Printf("Server stopped (PID: %d)\n", *pid)
		return nil
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the inference server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(config.StatePath())
		status := server.NewManager(store).Status()

		if !status.Running {
			fmt.Println("Server is not running.")
			return nil
		}

		fmt.Printf("Server is running (PID: %d)\n", *status.PID)
		if status.Port != nil {
			fmt.Printf("  port:       %d\n", *status.Port)
		}
		if status.CtxSize != nil {
			fmt.Printf("  ctx size:   %d\n", *status.CtxSize)
		}
		if status.GPULayers != nil {
			fmt.Printf("  gpu layers: %d\n", *status.GPULayers)
		}
		return nil
	},
}

func init() {
	serverStartCmd.Flags().BoolVar(&serverCaptureOutput, "capture-output", false, "log server stdout and stderr")
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	serverCmd.AddCommand(serverStatusCmd)
	rootCmd.AddCommand(serverCmd)
}
