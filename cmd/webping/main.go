// Package main is the entry point for the webping CLI.
//
// webping probes a list of sites on a fixed interval and logs each result.
//
// Usage:
//
//	webping run -c webping.yaml        # Probe until interrupted
//	webping run -c webping.yaml --service
//	webping validate -c webping.yaml   # Show effective settings
//	webping targets -c webping.yaml    # Show the parsed site list
//	webping version                    # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "webping",
	Short: "Periodic HTTP(S) site availability prober",
	Long: `webping checks that a list of sites answers, over and over.

Every interval it reads the site list, sends one request per site in
parallel and logs how each request went. Cycles never overlap and a slow
site cannot hold up the next cycle beyond the wait timeout.

Quick start:
  1. Create a site list (sites.txt), one URL per line:
       https://example.com
       HEAD https://example.org/health
  2. Create a settings file (webping.yaml):
       site_list: sites.txt
       interval: 5m
  3. Run: webping run -c webping.yaml`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this webping binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "webping %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("trace", false, "export cycle and probe spans to stderr")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}
