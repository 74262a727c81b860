package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var scanJSON bool

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the report as JSON")
}

// scanCmd sweeps artifacts for PII.
var scanCmd = &cobra.Command{
	Use:   "scan [dir|-]",
	Short: "Scan application artifacts for PII",
	Long: `Walk the artifact tree and report files containing detectable PII.
Read-only: files are never modified; the report points at what to clean
up by hand. Defaults to the configured applications directory. With "-"
text is read from stdin and checked directly.

Examples:
  appsrag scan
  appsrag scan applications/baseten
  pbpaste | appsrag scan -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	if len(args) > 0 && args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		result := svc.CheckText(string(content))
		if result.Clean() {
			fmt.Println("no PII found")
			return nil
		}
		fmt.Printf("PII detected: %s\n", strings.Join(result.RuleIDs(), ", "))
		return nil
	}

	root := ""
	if len(args) > 0 {
		root = args[0]
	}
	report, err := svc.Scan(root)
	if err != nil {
		return err
	}
	if scanJSON {
		return printJSON(report)
	}

	fmt.Printf("scanned %d files\n", report.Scanned)
	if len(report.Findings) == 0 {
		fmt.Println("no PII found")
		return nil
	}
	for _, finding := range report.Findings {
		fmt.Printf("  %s: %s\n", finding.Path, strings.Join(finding.RuleIDs, ", "))
	}
	return nil
}
