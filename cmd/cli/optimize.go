package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/database"
	"github.com/bossing/basket-service/internal/optimizer"
)

var (
	optimizeItemsFile string
	optimizeCatalog   string
	optimizeFormat    string
	optimizeLat       float64
	optimizeLng       float64
	optimizeTimeout   time.Duration
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize [item...]",
	Short: "Price a shopping list at every supermarket",
	Long: `Resolve each item of a shopping list against the catalog, price the basket
at every active supermarket and print the supermarkets cheapest first.

Items come from --items (a JSON array of {"catalogId","name","quantity"}, or "-"
for stdin) and from the arguments, one item name per argument. The catalog is
read from --catalog (a JSON seed file), the configured seed file, or Postgres.`,
	Example: `  basket optimize --catalog data/catalog.seed.json llet pa "oli d'oliva"
  basket optimize --items list.json --format json`,
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVar(&optimizeItemsFile, "items", "", "JSON shopping list file (\"-\" for stdin)")
	optimizeCmd.Flags().StringVar(&optimizeCatalog, "catalog", "", "JSON catalog seed file (defaults to catalog.seed_file, then Postgres)")
	optimizeCmd.Flags().StringVar(&optimizeFormat, "format", "table", "Output format: table or json")
	optimizeCmd.Flags().Float64Var(&optimizeLat, "lat", 41.3874, "Shopper latitude")
	optimizeCmd.Flags().Float64Var(&optimizeLng, "lng", 2.1686, "Shopper longitude")
	optimizeCmd.Flags().DurationVar(&optimizeTimeout, "timeout", 30*time.Second, "Overall timeout")
}

// listItem is one entry of a JSON shopping list.
type listItem struct {
	CatalogID string `json:"catalogId"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if optimizeFormat != "table" && optimizeFormat != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", optimizeFormat)
	}

	items, err := readShoppingList(cmd.InOrStdin(), optimizeItemsFile, args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no items: pass --items or item names as arguments")
	}

	ctx, cancel := context.WithTimeout(context.Background(), optimizeTimeout)
	defer cancel()

	provider, closeFn, err := openProvider(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	optCfg := optimizer.Defaults()
	if cfg != nil {
		optCfg = &cfg.Optimizer
	}
	svc := optimizer.NewService(provider, optCfg)

	cmp, err := svc.Compare(ctx, optimizer.CompareRequest{
		Items:    items,
		Location: optimizer.Location{Lat: optimizeLat, Lng: optimizeLng},
	})
	if err != nil {
		return fmt.Errorf("comparison failed (%s): %w", optimizer.ErrorReason(err), err)
	}

	if optimizeFormat == "json" {
		return writeComparisonJSON(cmd.OutOrStdout(), cmp)
	}
	return writeComparisonTable(cmd.OutOrStdout(), cmp)
}

func readShoppingList(stdin io.Reader, path string, names []string) ([]optimizer.RequestItem, error) {
	var items []optimizer.RequestItem

	if path != "" {
		var r io.Reader = stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open shopping list: %w", err)
			}
			defer f.Close()
			r = f
		}

		var list []listItem
		if err := json.NewDecoder(r).Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode shopping list: %w", err)
		}
		for _, li := range list {
			id := li.CatalogID
			if id == "" {
				id = li.ProductID
			}
			items = append(items, optimizer.RequestItem{CatalogID: id, Name: li.Name, Quantity: li.Quantity})
		}
	}

	for _, name := range names {
		items = append(items, optimizer.RequestItem{Name: name})
	}
	return items, nil
}

// openProvider picks the catalog the command runs against.
func openProvider(ctx context.Context) (catalog.Provider, func(), error) {
	seed := optimizeCatalog
	if seed == "" && cfg != nil {
		seed = cfg.Catalog.SeedFile
	}
	if seed != "" {
		mem, err := catalog.LoadSeedFile(seed)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug().Str("seed_file", seed).Int("products", mem.ProductCount()).Msg("Catalog loaded")
		return mem, func() {}, nil
	}

	if err := initDatabase(ctx); err != nil {
		return nil, nil, fmt.Errorf("no catalog: pass --catalog or configure the database: %w", err)
	}
	return catalog.NewPostgres(database.Pool()), database.Close, nil
}

// routeOutput is the JSON form of one ranked route. Amounts are euros.
type routeOutput struct {
	Rank             int          `json:"rank"`
	StoreID          string       `json:"storeId"`
	Store            string       `json:"store"`
	TotalCost        float64      `json:"totalCost"`
	EstimatedSavings float64      `json:"estimatedSavings"`
	Found            int          `json:"found"`
	Items            []lineOutput `json:"items"`
}

type lineOutput struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
	Found     bool    `json:"found"`
}

func toRouteOutputs(cmp *optimizer.Comparison) []routeOutput {
	out := make([]routeOutput, 0, len(cmp.Routes))
	for i, r := range cmp.Routes {
		b := r.Stops[0]
		lines := make([]lineOutput, 0, len(b.Lines))
		for _, l := range b.Lines {
			lines = append(lines, lineOutput{
				ProductID: l.ProductID,
				Name:      l.Name,
				Price:     catalog.ToEuros(l.Price),
				Quantity:  l.Quantity,
				Total:     catalog.ToEuros(l.LineTotal()),
				Found:     l.Found,
			})
		}
		out = append(out, routeOutput{
			Rank:             i + 1,
			StoreID:          b.Store.ID,
			Store:            b.Store.Name,
			TotalCost:        catalog.ToEuros(r.TotalCost),
			EstimatedSavings: catalog.ToEuros(r.EstimatedSavings),
			Found:            b.FoundCount(),
			Items:            lines,
		})
	}
	return out
}

func writeComparisonJSON(w io.Writer, cmp *optimizer.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		ItemCount   int           `json:"itemCount"`
		Routes      []routeOutput `json:"routes"`
		GeneratedAt time.Time     `json:"generatedAt"`
	}{
		ItemCount:   len(cmp.Request.Items),
		Routes:      toRouteOutputs(cmp),
		GeneratedAt: cmp.GeneratedAt,
	})
}

func writeComparisonTable(w io.Writer, cmp *optimizer.Comparison) error {
	routes := toRouteOutputs(cmp)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSUPERMARKET\tTOTAL\tSAVINGS\tFOUND")
	for _, r := range routes {
		fmt.Fprintf(tw, "%d\t%s\t%.2f €\t%.2f €\t%d/%d\n", r.Rank, r.Store, r.TotalCost, r.EstimatedSavings, r.Found, len(r.Items))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(routes) == 0 || routes[0].Found == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nCheapest basket at %s:\n", routes[0].Store)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range routes[0].Items {
		if !l.Found {
			fmt.Fprintf(tw, "  %s\t\t-\n", l.Name)
			continue
		}
		fmt.Fprintf(tw, "  %s\tx%d\t%.2f €\n", l.Name, l.Quantity, l.Total)
	}
	return tw.Flush()
}
