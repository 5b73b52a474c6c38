package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/webping"
)

// targetsCmd prints the site list as webping parses it.
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show the parsed site list",
	Long: `Parse the site list named by the settings file and print every target
that would be probed, followed by the lines that would be skipped.

Example:
  webping targets -c webping.yaml`,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)

	addSettingsFlags(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	path, err := s.SiteListPath()
	if err != nil {
		return fmt.Errorf("failed to resolve site list: %w", err)
	}

	out := cmd.OutOrStdout()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "Site list %s does not exist, nothing would be probed\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open site list: %w", err)
	}
	defer f.Close()

	targets, skipped, err := webping.ParseTargets(f)
	if err != nil {
		return fmt.Errorf("failed to read site list: %w", err)
	}

	fmt.Fprintf(out, "Site list: %s\n", path)
	fmt.Fprintf(out, "Targets (%d):\n", len(targets))
	for _, t := range targets {
		fmt.Fprintf(out, "  %s\n", t)
	}
	if len(skipped) > 0 {
		fmt.Fprintf(out, "Skipped (%d):\n", len(skipped))
		for _, e := range skipped {
			fmt.Fprintf(out, "  %s\n", e.Error())
		}
	}
	return nil
}
