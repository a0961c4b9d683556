package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/msghost"
	"github.com/sigma-eclipse/llmd/internal/server"
	"github.com/sigma-eclipse/llmd/internal/state"
)

// hostCmd speaks the native messaging protocol on stdio. The browser
// launches it with the extension origin as an argument; anything we print
// to stdout outside the protocol corrupts the stream.
var hostCmd = &cobra.Command{
	Use:    "host",
	Short:  "Run as the browser's native messaging host",
	Args:   cobra.ArbitraryArgs,
	Hidden: true,
	// Windows browsers add --parent-window=N to the launch.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := msghost.SetupLogging()
		if err != nil {
			return err
		}
		defer closer.Close()

		store := state.NewStore(config.StatePath())
		host := msghost.New(os.Stdin, os.Stdout, store, server.NewManager(store))
		return host.Run()
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
}
