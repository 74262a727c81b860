// Package main implements the appsrag CLI: a local retrieval and
// feedback loop over a job application tracker.
package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/appsrag/internal/config"
	"github.com/fyrsmithlabs/appsrag/internal/logging"
	"github.com/fyrsmithlabs/appsrag/internal/service"
)

var (
	// configPath is the optional YAML config file; env vars override it.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "appsrag",
	Short: "Local retrieval index and feedback loop for job applications",
	Long: `appsrag indexes a job application tracker into a local vector store,
answers ranked queries over it, and learns which application channels
work through explicit outcome feedback. Everything is file-backed and
runs offline.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (YAML)")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(feedbackBatchCmd)
	rootCmd.AddCommand(syncFeedbackCmd)
	rootCmd.AddCommand(thumbCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(autonomousCmd)
}

// openService loads configuration and opens all store handles. Callers
// must Close the returned service when the command finishes.
func openService() (*service.Service, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
