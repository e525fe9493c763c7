package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var dbCheckTimeout time.Duration

// dbCheckCmd represents the db-check command
var dbCheckCmd = &cobra.Command{
	Use:   "db-check",
	Short: "Check the catalog database connection",
	Long: `Connect to the catalog database with the plain database/sql driver and report
how many stores, products and prices it holds. Useful to validate DATABASE_URL
independently of the service's connection pool.`,
	RunE: runDBCheck,
}

func init() {
	rootCmd.AddCommand(dbCheckCmd)

	dbCheckCmd.Flags().DurationVar(&dbCheckTimeout, "timeout", 10*time.Second, "Connection timeout")
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	url := databaseURL()
	if url == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), dbCheckTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected: %s\n", version)

	for _, table := range []string{"stores", "products", "store_prices"} {
		var n int64
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%-13s missing (%v)\n", table, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-13s %d rows\n", table, n)
	}
	return nil
}
