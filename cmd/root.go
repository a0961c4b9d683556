// Package cmd provides the Cobra CLI for llmd.
package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version and BuildTime are set at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "llmd",
	Short: "Local LLM coordinator",
	Long:  "llmd manages a local llama.cpp inference server and bridges it to the browser extension.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// normalizeArgs rewrites a browser launch into the host subcommand. The
// browser executes the manifest path directly and passes the extension
// origin as the first argument, so the dispatch cannot come from the
// command line itself.
func normalizeArgs(args []string) []string {
	if len(args) > 0 && strings.HasPrefix(args[0], "chrome-extension://") {
		return append([]string{"host"}, args...)
	}
	return args
}

// Execute runs the root command.
func Execute() {
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(version, buildTime string) {
	Version = version
	BuildTime = buildTime
	rootCmd.Version = version + " (built " + buildTime + ")"
}
