package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/database"
	httpclient "github.com/bossing/basket-service/internal/http"
	"github.com/bossing/basket-service/internal/http/ratelimit"
	"github.com/bossing/basket-service/internal/ingestion"
)

var (
	importXLSX          string
	importStore         string
	importStoreName     string
	importCSV           string
	importCSVStore      string
	importCSVStoreName  string
	importFeed          string
	importFeedStore     string
	importFeedStoreName string
	importDryRun        bool
	importConcurrency   int
	importTimeout       time.Duration
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import supermarket price lists into the catalog",
	Long: `Run the ingestion adapters and write their records to the catalog database.

--xlsx reads a price list workbook (or a .zip of workbooks) for the store given by
--store. --csv reads a delimited price list for the store given by --csv-store;
the delimiter and a Windows-1252 encoding are detected. --feed reads a JSON product feed for the store given by --feed-store.
Sources run concurrently; a failing source is reported and skipped, it never
aborts the others. With --dry-run nothing is written.`,
	Example: `  basket import --xlsx preus-bonpreu.xlsx --store bonpreu --store-name "Bonpreu"
  basket import --csv condis.csv --csv-store condis --dry-run
  basket import --feed https://feed.example.cat/api --feed-store condis --dry-run`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importXLSX, "xlsx", "", "Price list workbook (.xlsx) or zip bundle of workbooks")
	importCmd.Flags().StringVar(&importStore, "store", "", "Store slug for --xlsx")
	importCmd.Flags().StringVar(&importStoreName, "store-name", "", "Store display name for --xlsx (defaults to the slug)")
	importCmd.Flags().StringVar(&importCSV, "csv", "", "Price list CSV file")
	importCmd.Flags().StringVar(&importCSVStore, "csv-store", "", "Store slug for --csv")
	importCmd.Flags().StringVar(&importCSVStoreName, "csv-store-name", "", "Store display name for --csv (defaults to the slug)")
	importCmd.Flags().StringVar(&importFeed, "feed", "", "Base URL of a JSON product feed")
	importCmd.Flags().StringVar(&importFeedStore, "feed-store", "", "Store slug for --feed")
	importCmd.Flags().StringVar(&importFeedStoreName, "feed-store-name", "", "Store display name for --feed (defaults to the slug)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Fetch and parse only, do not write to the database")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "Sources fetched at once (defaults to ingestion.concurrency)")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 10*time.Minute, "Overall timeout")
}

func newStore(slug, name string) catalog.Store {
	if name == "" {
		name = slug
	}
	return catalog.Store{ID: slug, Name: name, Slug: slug, Active: true}
}

func buildRegistry() (*ingestion.Registry, error) {
	var adapters []ingestion.Adapter

	if importXLSX != "" {
		if importStore == "" {
			return nil, fmt.Errorf("--xlsx needs --store")
		}
		adapters = append(adapters, ingestion.NewXLSXFileAdapter(newStore(importStore, importStoreName), importXLSX))
	}

	if importCSV != "" {
		if importCSVStore == "" {
			return nil, fmt.Errorf("--csv needs --csv-store")
		}
		adapters = append(adapters, ingestion.NewCSVFileAdapter(newStore(importCSVStore, importCSVStoreName), importCSV))
	}

	if importFeed != "" {
		if importFeedStore == "" {
			return nil, fmt.Errorf("--feed needs --feed-store")
		}
		feedCfg := ratelimit.DefaultConfig()
		if cfg != nil {
			feedCfg = cfg.Ingestion.Feed
		}
		client := httpclient.NewClient(feedCfg)
		adapters = append(adapters, ingestion.NewFeedAdapter(newStore(importFeedStore, importFeedStoreName), importFeed, client))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("nothing to import: pass --xlsx, --csv or --feed")
	}

	reg, err := ingestion.NewRegistry(adapters...)
	if err != nil {
		return nil, err
	}

	concurrency := importConcurrency
	if concurrency == 0 && cfg != nil {
		concurrency = cfg.Ingestion.Concurrency
	}
	if concurrency > 0 {
		reg.SetConcurrency(concurrency)
	}
	return reg, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	logger.Info().Strs("sources", reg.Slugs()).Msg("Starting import")
	results := reg.RunAll(ctx)
	printImportResults(cmd.OutOrStdout(), results)

	var sink ingestion.Sink
	if importDryRun {
		sink = ingestion.NewCatalogSink(nil)
	} else {
		if err := initDatabase(ctx); err != nil {
			return err
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx, database.Pool()); err != nil {
			return err
		}
		sink = ingestion.NewPostgresSink(database.Pool())
	}

	stats, err := sink.Write(ctx, results)
	if err != nil {
		return fmt.Errorf("failed to write import: %w", err)
	}

	logger.Info().
		Bool("dry_run", importDryRun).
		Int("stores", stats.Stores).
		Int("products", stats.Products).
		Int("prices", stats.Prices).
		Int("skipped", stats.Skipped).
		Msg("Import complete")

	if allFailed(results) {
		return fmt.Errorf("every source failed")
	}
	return nil
}

// allFailed reports whether no source produced anything.
func allFailed(results []ingestion.Result) bool {
	for _, r := range results {
		if len(r.Records) > 0 || !r.Failed() {
			return false
		}
	}
	return len(results) > 0
}

func printImportResults(w io.Writer, results []ingestion.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTORE\tRECORDS\tERRORS\tDURATION")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.Source, r.Store.Name, len(r.Records), len(r.Errors), r.Duration.Round(time.Millisecond))
	}
	tw.Flush()

	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "\n%s errors:\n  %s\n", r.Source, strings.Join(r.Errors, "\n  "))
		}
	}
}
