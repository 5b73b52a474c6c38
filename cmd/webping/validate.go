package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// validateCmd shows the effective settings without probing anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Show the effective settings",
	Long: `Read a settings file and print the values webping would use.

Timing values that fell back to a default or were raised to their minimum
are listed with the reason, followed by any other warnings. This is useful
for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Settings were read (fallbacks are not errors)
  1 - The file could not be read or is not valid YAML

Example:
  webping validate -c webping.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addSettingsFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	siteList, err := s.SiteListPath()
	if err != nil {
		siteList = s.SiteList
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Settings are valid!\n")
	fmt.Fprintf(out, "  Site list:       %s\n", siteList)
	fmt.Fprintf(out, "  Interval:        %s\n", s.Interval)
	fmt.Fprintf(out, "  Request timeout: %s\n", s.RequestTimeout)
	fmt.Fprintf(out, "  Wait timeout:    %s\n", s.WaitTimeout)
	fmt.Fprintf(out, "  Stop grace:      %s\n", s.StopGrace)
	fmt.Fprintf(out, "  Ignore cert errors: %t\n", s.IgnoreCertificateErrors)
	if s.ControlAddr != "" {
		fmt.Fprintf(out, "  Control API:     %s\n", s.ControlAddr)
	}

	if len(s.Headers) > 0 {
		names := make([]string, 0, len(s.Headers))
		for name := range s.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "  Headers:\n")
		for _, name := range names {
			fmt.Fprintf(out, "    %s: %s\n", name, s.Headers[name])
		}
	}

	if len(s.Fallbacks) > 0 {
		fmt.Fprintf(out, "Fallbacks:\n")
		for _, fb := range s.Fallbacks {
			fmt.Fprintf(out, "  %s\n", fb)
		}
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(out, "Warnings:\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}

	return nil
}
