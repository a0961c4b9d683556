package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/server"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change server settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings()
		if err != nil {
			return err
		}
		fmt.Printf("active model: %s\n", s.ActiveModel)
		fmt.Printf("port:         %d\n", s.Port)
		fmt.Printf("ctx size:     %d\n", s.CtxSize)
		fmt.Printf("gpu layers:   %d\n", s.GPULayers)
		return nil
	},
}

var (
	setModel     string
	setPort      uint16
	setCtxSize   uint32
	setGPULayers int32
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("model") {
			s.ActiveModel = setModel
		}
		if cmd.Flags().Changed("port") {
			s.Port = setPort
		}
		if cmd.Flags().Changed("ctx-size") {
			s.CtxSize = setCtxSize
		}
		if cmd.Flags().Changed("gpu-layers") {
			if setGPULayers < 0 {
				return fmt.Errorf("gpu layers cannot be negative")
			}
			s.GPULayers = uint32(setGPULayers)
		}

		// Reject settings the server would refuse at start.
		cfg := server.ConfigFromSettings(s)
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := s.Save(); err != nil {
			return err
		}
		fmt.Println("Settings saved. Restart the server to apply them.")
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&setModel, "model", "", "active model name")
	settingsSetCmd.Flags().Uint16Var(&setPort, "port", 0, "server port")
	settingsSetCmd.Flags().Uint32Var(&setCtxSize, "ctx-size", 0, "context size")
	settingsSetCmd.Flags().Int32Var(&setGPULayers, "gpu-layers", 0, "GPU layers to offload")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
