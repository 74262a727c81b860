package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	logAppID string
	logType  string
)

func init() {
	logCmd.Flags().StringVar(&logAppID, "app", "", "application id the note refers to")
	logCmd.Flags().StringVar(&logType, "type", "", "event type (applied, response, feedback, note)")
}

// logCmd appends an operator note to the event stream.
var logCmd = &cobra.Command{
	Use:   "log <message...>",
	Short: "Record a note in the event stream",
	Long: `Append a free-text event to the episodic memory stream and the
audit log. Notes pass through the PII gate: a note containing PII is
rejected, never silently redacted.

Examples:
  appsrag log --app baseten__infra-engineer__ab12cd34ef "recruiter call went well"
  appsrag log "paused applications this week"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	if err := svc.Log(logAppID, logType, strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Println("recorded")
	return nil
}
