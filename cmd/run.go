package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/heartbeat"
	"github.com/sigma-eclipse/llmd/internal/server"
	"github.com/sigma-eclipse/llmd/internal/state"
)

// runCmd is the hidden foreground process that stands in for the desktop
// application: it keeps the liveness record fresh so the host and extension
// see the app as running.
var runCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run the application loop in the foreground",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureDirs(); err != nil {
			return fmt.Errorf("failed to create data directories: %w", err)
		}

		store := state.NewStore(config.StatePath())
		if store.AppRunning() {
			return fmt.Errorf("another instance is already running")
		}

		mgr := server.NewManager(store)

		hb := heartbeat.NewRunner(store)
		hb.Start()
		defer hb.Stop()

		fmt.Printf("Running (state: %s)\n", store.Path())

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		fmt.Println("\nShutting down...")

		// Only a server this process spawned is ours to take down; one
		// started by the messaging host keeps running across app restarts.
		if mgr.Owned() {
			if pid := store.CheckServerRunning(); pid != nil {
				logrus.WithField("pid", *pid).Info("stopping server before exit")
			}
			if err := mgr.Stop(); err != nil {
				logrus.WithError(err).Warn("failed to stop server on shutdown")
			}
		}

		fmt.Println("Stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
