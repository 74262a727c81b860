package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the dashboard as JSON")
}

// statusCmd is the pipeline dashboard.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the application pipeline dashboard",
	Long: `Summarize the indexed pipeline: counts per status, open drafts,
blocked applications, channel posteriors and index metadata.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	report, err := svc.Status()
	if err != nil {
		return err
	}
	if statusJSON {
		return printJSON(report)
	}

	fmt.Printf("%d applications indexed (built %s, %s via %s)\n",
		report.Total, report.Manifest.BuiltAt.Format("2006-01-02 15:04"),
		report.Manifest.SchemaVersion, report.Manifest.Provider)

	statuses := make([]string, 0, len(report.StatusCounts))
	for status := range report.StatusCounts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Printf("  %-10s %d\n", status, report.StatusCounts[status])
	}

	if len(report.Drafts) > 0 {
		fmt.Println("\ndrafts to finish:")
		for _, rec := range report.Drafts {
			fmt.Printf("  %s / %s\n", rec.Company, rec.Role)
		}
	}
	if len(report.Blocked) > 0 {
		fmt.Println("\nblocked, need manual submission:")
		for _, rec := range report.Blocked {
			fmt.Printf("  %s / %s\n", rec.Company, rec.Role)
		}
	}

	if len(report.Arms) > 0 {
		fmt.Println("\nchannel posteriors:")
		for _, arm := range report.Arms {
			fmt.Printf("  %-24s mean %.3f  (alpha=%.1f beta=%.1f, %d pulls)\n",
				arm.Category+" via "+arm.Method, arm.Mean, arm.Alpha, arm.Beta, arm.Pulls)
		}
	}
	fmt.Printf("\n%d memory events", report.ShortEvents)
	if report.CorruptLines > 0 {
		fmt.Printf(" (%d corrupt lines skipped)", report.CorruptLines)
	}
	fmt.Println()
	return nil
}
