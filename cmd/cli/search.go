package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/price-aggregator/internal/aggregator"
	"github.com/kosarica/price-aggregator/internal/export"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/normalize"
)

var (
	searchCategory string
	searchLocation string
	searchOutput   string
	searchXLSX     string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <item>",
	Short: "Search one item across every platform serving a location",
	Long: `Run the aggregation pipeline for one item. Platforms serving the location are
queried concurrently; when none return results the nearby-city and synthetic
fallbacks apply, exactly as the HTTP /search endpoint does.`,
	Example: `  price-aggregator search milk --category groceries --location "Mumbai (400001)"
  price-aggregator search paracetamol -c medicines -l "Pune (411001)" --output json
  price-aggregator search bread -c groceries -l "Delhi (110001)" --xlsx bread.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "groceries", "Category: groceries, food or medicines")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", `Location as "City (pincode)"`)
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "table", "Output format (table, json)")
	searchCmd.Flags().StringVar(&searchXLSX, "xlsx", "", "Also write the comparison to this .xlsx file")
	searchCmd.MarkFlagRequired("location")
}

func runSearch(cmd *cobra.Command, args []string) error {
	loc := location.Parse(searchLocation)
	if err := location.Check(loc); err != nil {
		return fmt.Errorf("invalid location %q: %w", searchLocation, err)
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	logger.Info().Str("item", args[0]).Str("category", searchCategory).Str("location", loc.Formatted()).Msg("Searching")
	res, err := p.Orchestrator.Aggregate(cmd.Context(), args[0], searchCategory, loc)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	logger.Info().
		Int("results", len(res.Records)).
		Str("source", string(res.Source)).
		Dur("duration", res.Duration).
		Msg("Search complete")

	if searchXLSX != "" {
		if err := writeComparison(searchXLSX, res, loc); err != nil {
			return err
		}
		logger.Info().Str("file", searchXLSX).Msg("Wrote spreadsheet")
	}

	switch strings.ToLower(searchOutput) {
	case "json":
		return outputJSON(os.Stdout, res)
	case "table":
		outputSearchTable(os.Stdout, res)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", searchOutput)
	}
}

func writeComparison(path string, res *aggregator.Result, loc location.Location) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	werr := export.WriteXLSX(f, export.Comparison{
		Query:    res.Item,
		Category: string(res.Category),
		Location: loc.Formatted(),
		Source:   res.Source,
		Records:  res.Records,
	})
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("failed to write %s: %w", path, werr)
	}
	return nil
}

func outputSearchTable(out io.Writer, res *aggregator.Result) {
	fmt.Fprintf(out, "\nResults for %q in %s (%s data)\n", res.Item, res.City, res.Source)
	fmt.Fprintln(out, strings.Repeat("-", 72))

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Platform\tProduct\tPrice\tDelivery\tTotal\tETA\t\n")
	fmt.Fprintf(w, "--------\t-------\t-----\t--------\t-----\t---\t\n")
	for _, r := range res.Records {
		mark := ""
		if r.IsCheapest {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
			r.Platform, truncate(r.ProductName, 40), r.Price, r.DeliveryFee, r.TotalCost(), r.DeliveryTimeLabel, mark)
	}
	w.Flush()

	if pr := normalize.Summarize(res.Records); pr != nil {
		fmt.Fprintf(out, "\nPrice range: %.2f - %.2f (avg %.2f)\n", pr.Min, pr.Max, pr.Average)
	}

	failed := 0
	for _, o := range res.Outcomes {
		if o.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(out, "%d of %d platforms failed; see logs\n", failed, len(res.Outcomes))
	}
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
