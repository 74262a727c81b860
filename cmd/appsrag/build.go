package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildJSON bool

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "print the build report as JSON")
}

// buildCmd rebuilds the index from the tracker.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the index from the application tracker",
	Long: `Rebuild the local index from the tracker CSV. The rebuild is
wholesale: records removed from the tracker disappear from the index.

Examples:
  # Rebuild with the default config
  appsrag build

  # Machine-readable report
  appsrag build --json`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	report, err := svc.Build(cmd.Context())
	if err != nil {
		return err
	}
	if buildJSON {
		return printJSON(report)
	}

	fmt.Printf("indexed %d applications (schema %s)\n", report.Count, report.SchemaVersion)
	if report.PIIRejected > 0 {
		fmt.Printf("rejected %d records containing PII:\n", report.PIIRejected)
		for _, id := range report.Rejected {
			fmt.Printf("  %s\n", id)
		}
	}
	for _, rowErr := range report.RowErrors {
		fmt.Printf("skipped row %d: %s\n", rowErr.Line, rowErr.Reason)
	}
	if report.BootstrappedArms > 0 {
		fmt.Printf("bootstrapped bandit arms from %d historical outcomes\n", report.BootstrappedArms)
	}
	return nil
}
