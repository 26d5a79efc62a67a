package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"restaurant-ops/internal/app/dashboard"
	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/connections/database"
	"restaurant-ops/internal/dataservice"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/remote/postgres"
	"restaurant-ops/internal/search"
	"restaurant-ops/internal/seed"
)

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := dashboard.Build(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Run(cmd.Context())
	},
}

// --- search ---

var (
	searchJSON  bool
	searchWatch bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search pages, reservations, orders, guests and files",
	Long: `Search pages, reservations, orders, guests and files.

With --watch the query is re-run whenever a collection changes, until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchWatch, "watch", false, "re-run the query on every change")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	// Keep stdout for results.
	app, err := dashboard.Build(cmd.Context(), cfg, logger.NewWithWriter(cfg.Service.Name, os.Stderr, cfg.Log.Level))
	if err != nil {
		return err
	}
	defer app.Close()

	svc := app.Service()
	svc.Start(cmd.Context())
	out := cmd.OutOrStdout()
	query := args[0]

	if !searchWatch {
		results, err := svc.SearchGlobal(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printResults(out, results, searchJSON)
	}
	return watchSearch(cmd, svc, query)
}

func watchSearch(cmd *cobra.Command, svc *dataservice.Service, query string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var latest search.Latest
	changed := make(chan struct{}, 1)
	poke := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	defer svc.SubscribeReservations(func([]domain.Reservation) { poke() })()
	defer svc.SubscribeOrders(func([]domain.Order) { poke() })()
	defer svc.SubscribeGuests(func([]domain.CrmEntry) { poke() })()
	defer svc.SubscribeDocuments(func([]domain.DocumentFile) { poke() })()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
		ticket := latest.Begin()
		results, err := svc.SearchGlobal(ctx, query)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		var perr error
		latest.Accept(ticket, func() {
			fmt.Fprintf(out, "--- %s ---\n", time.Now().Format(time.TimeOnly))
			perr = printResults(out, results, searchJSON)
		})
		if perr != nil {
			return perr
		}
	}
}

func printResults(w io.Writer, results []domain.SearchResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tTITLE\tSUBTITLE\tROUTE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, r.Title, strings.ReplaceAll(r.Subtitle, "\t", " "), r.Route)
	}
	return tw.Flush()
}

// --- migrate ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema and change triggers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		log.Info("schema_applied", map[string]any{"database": cfg.Database.Database})
		return nil
	},
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo reservations and orders into Postgres",
	Long: `Load the demo reservations and orders into Postgres.

Rows that already exist are left untouched, so the command can be re-run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		reservations, orders := seed.Reservations(), seed.Orders(time.Now())
		if err := postgres.NewStore(pool).Seed(cmd.Context(), reservations, orders); err != nil {
			return err
		}
		log.Info("demo_data_seeded", map[string]any{"reservations": len(reservations), "orders": len(orders)})
		return nil
	},
}
