package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/appsrag/internal/retriever"
)

var (
	queryK       int
	queryStatus  string
	queryMethod  string
	queryJSON    bool
	queryVerbose bool

	retrieveK      int
	retrieveStatus string
	retrieveMethod string
)

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top", "k", 10, "number of results")
	queryCmd.Flags().StringVar(&queryStatus, "status", "", "filter by status (exact, case-insensitive)")
	queryCmd.Flags().StringVar(&queryMethod, "method", "", "filter by application method")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print results as JSON")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "show per-component score breakdown")

	retrieveCmd.Flags().IntVarP(&retrieveK, "top", "k", 10, "number of results")
	retrieveCmd.Flags().StringVar(&retrieveStatus, "status", "", "filter by status")
	retrieveCmd.Flags().StringVar(&retrieveMethod, "method", "", "filter by application method")
}

// queryCmd is the human-facing search.
var queryCmd = &cobra.Command{
	Use:   "query [terms...]",
	Short: "Search indexed applications",
	Long: `Search the index with fused vector, lexical, bandit and memory
scoring. With no terms it lists every indexed application, still ranked
and filtered.

Examples:
  # Ranked search
  appsrag query infra engineer

  # Everything currently applied, newest signal first
  appsrag query --status applied

  # Show why each hit scored what it did
  appsrag query -v platform`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	query := strings.Join(args, " ")
	results, err := svc.Query(cmd.Context(), query, retriever.Filters{
		Status: queryStatus,
		Method: queryMethod,
	}, queryK)
	if err != nil {
		return err
	}
	if queryJSON {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, sr := range results {
		rec := sr.Record
		fmt.Printf("%2d. %-20s %-28s %-10s %-10s %.4f\n",
			i+1, rec.Company, rec.Role, rec.Status, rec.Method, sr.Score)
		if queryVerbose {
			fmt.Printf("    app_id=%s\n", rec.ID)
			fmt.Printf("    vector=%.4f lexical=%.4f bandit=%.4f short=%.4f long=%.4f\n",
				sr.VectorScore, sr.LexicalScore, sr.BanditScore, sr.ShortMemory, sr.LongMemory)
		}
	}
	return nil
}

// retrieveCmd is the agent-facing search: validated request in,
// versioned envelope out.
var retrieveCmd = &cobra.Command{
	Use:   "retrieve <terms...>",
	Short: "Search and emit the versioned agent envelope",
	Long: `Like query, but the request is validated against the retrieval
contract and the output is the versioned JSON envelope agents consume.
A blank query or out-of-range k is a contract error, not a clamp.

Examples:
  appsrag retrieve infra engineer -k 5
  appsrag retrieve --status applied platform`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	env, err := svc.Retrieve(cmd.Context(), strings.Join(args, " "), retrieveK, retrieveStatus, retrieveMethod)
	if err != nil {
		return err
	}
	return printJSON(env)
}
