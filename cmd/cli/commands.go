package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/auth"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/config"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/postgres"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/sqlite"
)

const noteWidth = 32

func balanceCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show one account's native balance, or every account valued in the base currency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(opts)
			if len(args) == 1 {
				data, err := client.get(cmd.Context(), "/accounts/"+url.PathEscape(args[0])+"/balance", nil)
				if err != nil {
					return err
				}
				return printRaw(cmd.OutOrStdout(), data)
			}

			var valuation dto.ValuationResponse
			if err := getInto(cmd, client, "/balances", nil, &valuation); err != nil {
				return err
			}
			return printValuation(cmd.OutOrStdout(), &valuation)
		},
	}
}

func rateCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Exchange rate operations",
	}

	setCmd := &cobra.Command{
		Use:   "set CURRENCY VALUE_IN_BASE",
		Short: "Record the value of one unit of CURRENCY in the base currency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint(cmd, newClient(opts), "/rates", dto.SetRateRequest{Currency: args[0], ValueInBase: args[1]})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get CURRENCY",
		Short: "Show the latest rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(cmd, newClient(opts), "/rates/"+url.PathEscape(args[0]), nil)
		},
	}

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history CURRENCY",
		Short: "Show rate observations, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return getAndPrint(cmd, newClient(opts), "/rates/"+url.PathEscape(args[0])+"/history", query)
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of observations")

	cmd.AddCommand(setCmd, getCmd, historyCmd)
	return cmd
}

// recordCmd builds the expense and income commands, which differ only in
// path and the category flag.
func recordCmd(opts *cliOptions, kind string) *cobra.Command {
	var req dto.RecordEntryRequest

	cmd := &cobra.Command{
		Use:   kind + " AMOUNT",
		Short: "Record an " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Amount = args[0]
			return postAndPrint(cmd, newClient(opts), "/"+kind+"s", req)
		},
	}

	cmd.Flags().StringVar(&req.Account, "account", "", "Account id, e.g. cash-ARS")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "Currency of the amount (defaults to the account currency)")
	cmd.Flags().StringVar(&req.Note, "note", "", "Free-text note")
	if kind == "expense" {
		cmd.Flags().StringVar(&req.Category, "category", "", "Expense category")
		_ = cmd.MarkFlagRequired("category")
	}
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func exchangeCmd(opts *cliOptions) *cobra.Command {
	var req dto.ExchangeRequest

	cmd := &cobra.Command{
		Use:   "exchange AMOUNT",
		Short: "Move AMOUNT from one account to another at the given source rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Amount = args[0]
			return postAndPrint(cmd, newClient(opts), "/exchanges", req)
		},
	}

	cmd.Flags().StringVar(&req.FromAccount, "from", "", "Source account id")
	cmd.Flags().StringVar(&req.ToAccount, "to", "", "Destination account id")
	cmd.Flags().StringVar(&req.RateToBase, "rate", "", "Value of one source unit in the base currency")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("rate")

	return cmd
}

func reconcileCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile ACCOUNT OBSERVED",
		Short: "Align an account with the balance observed in reality",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint(cmd, newClient(opts), "/reconciliations", dto.ReconcileRequest{Account: args[0], Observed: args[1]})
		},
	}
}

func reportCmd(opts *cliOptions) *cobra.Command {
	var period, from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise expenses by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIf(query, "period", period)
			setIf(query, "from", from)
			setIf(query, "to", to)

			var report dto.ReportResponse
			if err := getInto(cmd, newClient(opts), "/reports", query, &report); err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), &report)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "today, last-7-days, month-to-date, last-30-days or custom")
	cmd.Flags().StringVar(&from, "from", "", "Custom period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Custom period end (YYYY-MM-DD)")

	return cmd
}

func entriesCmd(opts *cliOptions) *cobra.Command {
	var (
		account, from, to string
		kinds             []string
		limit             int
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List ledger entries in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIf(query, "account", account)
			setIf(query, "from", from)
			setIf(query, "to", to)
			for _, k := range kinds {
				query.Add("kind", k)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			var list dto.ListEntriesResponse
			if err := getInto(cmd, newClient(opts), "/entries", query, &list); err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), &list)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Only entries of this account")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only entries of these kinds")
	cmd.Flags().StringVar(&from, "from", "", "Earliest creation time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest creation time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries")

	return cmd
}

func ledgerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that every exchange has both legs",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(opts).get(cmd.Context(), "/ledger/consistency", nil)

			var apiErr *APIError
			if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict) {
				return err
			}

			out := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintln(out, "Consistency check FAILED")
			} else {
				fmt.Fprintln(out, "Consistency check PASSED")
			}
			if perr := printRaw(out, data); perr != nil {
				return perr
			}
			if err != nil {
				return errors.New("ledger is inconsistent")
			}
			return nil
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Actor token operations",
	}

	var (
		secret, id, name string
		ttl              time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token for a family member",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(domain.Actor{ID: id, Name: name})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	issueCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret shared with the server")
	issueCmd.Flags().StringVar(&id, "id", "", "Actor id")
	issueCmd.Flags().StringVar(&name, "name", "", "Actor display name")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 720*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("id")

	cmd.AddCommand(issueCmd)
	return cmd
}

// migrateCmd runs schema migrations against the configured store directly.
func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations using the server configuration",
	}

	run := func(up bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return migrate(cmd, cfg, up)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(true)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(false)},
	)

	return cmd
}

func migrate(cmd *cobra.Command, cfg *config.Config, up bool) error {
	logger := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		if up {
			return postgres.RunMigrations(cfg.DatabaseURL, logger)
		}
		return postgres.RunMigrationsDown(cfg.DatabaseURL, logger)

	case config.DriverSQLite:
		db, err := sqlite.Open(cmd.Context(), cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if up {
			return sqlite.RunMigrations(db, logger)
		}
		return sqlite.RunMigrationsDown(db, logger)
	}

	return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func getInto(cmd *cobra.Command, client *apiClient, path string, query url.Values, v any) error {
	data, err := client.get(cmd.Context(), path, query)
	if err != nil {
		return err
	}
	return decode(data, v)
}

func getAndPrint(cmd *cobra.Command, client *apiClient, path string, query url.Values) error {
	data, err := client.get(cmd.Context(), path, query)
	if err != nil {
		return err
	}
	return printRaw(cmd.OutOrStdout(), data)
}

func postAndPrint(cmd *cobra.Command, client *apiClient, path string, body any) error {
	data, err := client.post(cmd.Context(), path, body)
	if err != nil {
		return err
	}
	return printRaw(cmd.OutOrStdout(), data)
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func printValuation(w io.Writer, v *dto.ValuationResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tRATE\t"+v.BaseCurrency)
	for _, a := range v.Accounts {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", a.Account, a.Native, a.Currency, a.Rate, a.Base)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\n", v.Total)
	return tw.Flush()
}

func printReport(w io.Writer, r *dto.ReportResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Expenses %s (%s .. %s)\n", r.Period, r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout))
	for _, c := range r.Categories {
		fmt.Fprintf(tw, "%s\t%s %s\n", c.Category, c.Base, r.BaseCurrency)
	}
	fmt.Fprintf(tw, "TOTAL\t%s %s\n", r.Total, r.BaseCurrency)
	for _, cur := range r.MissingRates {
		fmt.Fprintf(tw, "no rate for %s; its spend is excluded\n", cur)
	}
	return tw.Flush()
}

func printEntries(w io.Writer, list *dto.ListEntriesResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tKIND\tACCOUNT\tAMOUNT\tCATEGORY\tNOTE")
	for _, e := range list.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			e.ID, e.CreatedAt.Format(time.RFC3339), e.Kind, e.Account, e.Amount, e.Currency, e.Category, truncate(e.Note, noteWidth))
	}
	fmt.Fprintf(tw, "%d entries\n", list.Total)
	return tw.Flush()
}
