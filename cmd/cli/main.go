package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// cliOptions are the persistent flags shared by every command.
type cliOptions struct {
	baseURL   string
	timeout   time.Duration
	token     string
	actorID   string
	actorName string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "budget-cli",
		Short:         "Family budget CLI tool",
		Long:          `A command line interface for the family budget ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", envOr("BUDGET_URL", "http://localhost:8080"), "Base URL of the budget API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.token, "token", os.Getenv("BUDGET_TOKEN"), "Bearer token (when the server has auth enabled)")
	flags.StringVar(&opts.actorID, "actor-id", os.Getenv("BUDGET_ACTOR_ID"), "Actor id sent when auth is disabled")
	flags.StringVar(&opts.actorName, "actor-name", os.Getenv("BUDGET_ACTOR_NAME"), "Actor name sent when auth is disabled")

	rootCmd.AddCommand(
		balanceCmd(opts),
		rateCmd(opts),
		recordCmd(opts, "expense"),
		recordCmd(opts, "income"),
		exchangeCmd(opts),
		reconcileCmd(opts),
		reportCmd(opts),
		entriesCmd(opts),
		ledgerCmd(opts),
		tokenCmd(),
		migrateCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
