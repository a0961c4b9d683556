package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/install"
	"github.com/sigma-eclipse/llmd/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the overall installation and runtime status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(config.StatePath())

		if version, err := install.InstalledServerVersion(); err == nil {
			needsUpdate, _ := install.NeedsServerUpdate()
			suffix := ""
			if needsUpdate {
				suffix = " (update available)"
			}
			fmt.Printf("server binary:  installed, version %s%s\n", version, suffix)
		} else {
			fmt.Println("server binary:  not installed (run 'llmd install')")
		}

		if install.HostManifestInstalled() {
			fmt.Println("host manifest:  installed")
		} else {
			fmt.Println("host manifest:  not installed (run 'llmd install')")
		}

		running, pid := store.ServerRunning()
		if running {
			fmt.Printf("server:         running (PID: %d)\n", *pid)
		} else {
			fmt.Println("server:         not running")
		}

		if store.AppRunning() {
			fmt.Println("app:            running")
		} else {
			fmt.Println("app:            not running")
		}

		st := store.Read()
		if st.IsDownloading {
			if st.DownloadProgress != nil {
				fmt.Printf("download:       in progress (%.1f%%)\n", *st.DownloadProgress)
			} else {
				fmt.Println("download:       in progress")
			}
		}

		infos, err := install.ListModels()
		if err != nil {
			return err
		}
		downloaded := 0
		for _, info := range infos {
			if info.Downloaded {
				downloaded++
			}
		}
		fmt.Printf("models:         %d/%d downloaded\n", downloaded, len(infos))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
