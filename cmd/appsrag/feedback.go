package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendK int

func init() {
	recommendCmd.Flags().IntVarP(&recommendK, "top", "k", 3, "number of arms to recommend")
}

// feedbackCmd records one explicit outcome.
var feedbackCmd = &cobra.Command{
	Use:   "feedback <app-id> <outcome>",
	Short: "Record a terminal outcome for an application",
	Long: `Record an outcome for an application and update the channel
posterior. Outcomes: interview, offer, response (success);
rejected, no_response, blocked (failure). Lifecycle states like
applied are not outcomes and are rejected.

Examples:
  appsrag feedback baseten__infra-engineer__ab12cd34ef interview
  appsrag feedback acme__frontend-engineer__0f9e8d7c6b rejected`,
	Args: cobra.ExactArgs(2),
	RunE: runFeedback,
}

func runFeedback(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	if err := svc.Feedback(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("recorded %s for %s\n", args[1], args[0])
	return nil
}

// feedbackBatchCmd replays the episodic memory stream.
var feedbackBatchCmd = &cobra.Command{
	Use:   "feedback-batch",
	Short: "Replay logged outcome events into the bandit model",
	Long: `Replay outcome events from the episodic memory stream into the
bandit model. Idempotent: each event id is applied at most once across
all runs.`,
	RunE: runFeedbackBatch,
}

func runFeedbackBatch(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	summary, err := svc.FeedbackBatch()
	if err != nil {
		return err
	}
	fmt.Printf("applied %d, skipped %d duplicates, %d invalid\n",
		summary.Processed, summary.Duplicates, summary.Invalid)
	for _, msg := range summary.Errors {
		fmt.Printf("  %s\n", msg)
	}
	return nil
}

// syncFeedbackCmd derives outcomes from tracker columns.
var syncFeedbackCmd = &cobra.Command{
	Use:   "sync-feedback",
	Short: "Derive outcomes from tracker status columns",
	Long: `Infer outcomes from the tracker's status, response and interview
stage columns and replay them into the bandit model. Re-running with an
unchanged tracker is a no-op; a row contributes again only after its
status moves.`,
	RunE: runSyncFeedback,
}

func runSyncFeedback(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	summary, err := svc.SyncFeedback()
	if err != nil {
		return err
	}
	fmt.Printf("applied %d tracker outcomes, skipped %d already seen\n",
		summary.Processed, summary.Duplicates)
	return nil
}

// thumbCmd is the low-friction vote.
var thumbCmd = &cobra.Command{
	Use:   "thumb <up|down> [app-id]",
	Short: "Record a quick vote for an application",
	Long: `Record a coarse vote: up counts as a response, down as no
response. Without an app id the vote goes to the top hit of the most
recent query, falling back to the most recently updated application.

Examples:
  appsrag thumb up
  appsrag thumb down acme__frontend-engineer__0f9e8d7c6b`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThumb,
}

func runThumb(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	appID := ""
	if len(args) > 1 {
		appID = args[1]
	}
	resolved, err := svc.Thumb(appID, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("recorded thumb %s for %s\n", args[0], resolved)
	return nil
}

// recommendCmd samples the posterior for targeting advice.
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend application channels to focus on",
	Long: `Thompson-sample the channel posteriors and print the top arms.
Deliberately stochastic: repeated runs explore uncertain channels
instead of always repeating the current best.`,
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	recs := svc.Recommend(recommendK)
	if len(recs) == 0 {
		fmt.Println("no arms yet; run build and record some feedback first")
		return nil
	}
	for i, rec := range recs {
		fmt.Printf("%d. %s via %s  (sampled %.3f, mean %.3f over %d pulls)\n",
			i+1, rec.Category, rec.Method, rec.Sampled, rec.Mean, rec.Pulls)
	}
	return nil
}
