package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/install"
	"github.com/sigma-eclipse/llmd/internal/state"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage downloaded models",
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog models and their install state",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := install.ListModels()
		if err != nil {
			return err
		}

		active, err := config.ActiveModel()
		if err != nil {
			active = ""
		}

		for _, info := range infos {
			marker := " "
			if info.Name == active {
				marker = "*"
			}
			if info.Downloaded {
				fmt.Printf("%s %s (v%s) downloaded at %s\n", marker, info.Name, info.Version, info.Path)
			} else {
				fmt.Printf("%s %s (v%s) not downloaded\n", marker, info.Name, info.Version)
			}
		}
		return nil
	},
}

var modelDownloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download a model from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewStore(config.StatePath())
		msg, err := install.DownloadModel(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var modelDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a downloaded model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := install.DeleteModel(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted model %q.\n", args[0])
		return nil
	},
}

func init() {
	modelCmd.AddCommand(modelListCmd)
	modelCmd.AddCommand(modelDownloadCmd)
	modelCmd.AddCommand(modelDeleteCmd)
	rootCmd.AddCommand(modelCmd)
}
