package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
	"github.com/kosarica/price-aggregator/internal/types"
)

var (
	cartFile     string
	cartCategory string
	cartLocation string
	cartOutput   string
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Split a cart across platforms for the lowest total",
	Long: `Read a cart from a JSON file ({"items": [...], "prices": [...]}) and compute the
cheapest split across platforms, delivery fees included. When the file carries
no prices, every item is searched live at --location within --category.`,
	Example: `  price-aggregator optimize --file cart.json
  price-aggregator optimize --file items.json -c groceries -l "Mumbai (400001)"`,
	RunE: runOptimize,
}

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Suggest the cheapest platform per item of a saved cart",
	Long: `Read a saved cart from a JSON file ({"items": [...]}) whose items carry per-platform
offers, and group the items by the platform offering each at the lowest cost.`,
	Example: `  price-aggregator plan --file saved-cart.json --output json`,
	RunE:    runPlan,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(planCmd)

	for _, c := range []*cobra.Command{optimizeCmd, planCmd} {
		c.Flags().StringVarP(&cartFile, "file", "f", "", "Cart JSON file (- for stdin)")
		c.Flags().StringVarP(&cartOutput, "output", "o", "table", "Output format (table, json)")
		c.MarkFlagRequired("file")
	}
	optimizeCmd.Flags().StringVarP(&cartCategory, "category", "c", "groceries", "Category used for live pricing")
	optimizeCmd.Flags().StringVarP(&cartLocation, "location", "l", "", `Location used for live pricing, as "City (pincode)"`)
}

type cartFileBody struct {
	Items  []optimizer.CartItem `json:"items"`
	Prices []types.PriceRecord  `json:"prices"`
}

type planFileBody struct {
	Items []optimizer.PersistedCartItem `json:"items"`
}

func readJSON(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	var body cartFileBody
	if err := readJSON(cartFile, &body); err != nil {
		return err
	}

	prices := body.Prices
	if len(prices) == 0 {
		if cartLocation == "" {
			return fmt.Errorf("the cart has no prices; pass --location to search them")
		}
		loc := location.Parse(cartLocation)
		if err := location.Check(loc); err != nil {
			return fmt.Errorf("invalid location %q: %w", cartLocation, err)
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}
		for _, item := range body.Items {
			res, err := p.Orchestrator.Aggregate(cmd.Context(), item.Name, cartCategory, loc)
			if err != nil {
				return fmt.Errorf("pricing %q failed: %w", item.Name, err)
			}
			logger.Info().Str("item", item.Name).Int("results", len(res.Records)).Str("source", string(res.Source)).Msg("Priced item")
			prices = append(prices, res.Records...)
		}
	}

	res, err := optimizer.NewService(&cfg.Optimizer).Optimize(cmd.Context(), body.Items, prices)
	if err != nil {
		return err
	}

	if strings.ToLower(cartOutput) == "json" {
		return outputJSON(os.Stdout, res)
	}

	fmt.Printf("\n%s\n", res.Message)
	fmt.Println(strings.Repeat("-", 60))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Platform\tItems\tSubtotal\tDelivery\n")
	fmt.Fprintf(w, "--------\t-----\t--------\t--------\n")
	for _, g := range res.Breakdown {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\n", g.Platform, strings.Join(g.Items, ", "), g.Subtotal, g.DeliveryFee)
	}
	w.Flush()
	fmt.Printf("\nTotal: %.2f", res.Total)
	if res.BaselineTotal != nil {
		fmt.Printf("  (single platform %s: %.2f, savings %.2f)", res.BaselinePlatform, *res.BaselineTotal, res.Savings)
	}
	fmt.Println()
	if len(res.DroppedItems) > 0 {
		fmt.Printf("Not available anywhere: %s\n", strings.Join(res.DroppedItems, ", "))
	}
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	var body planFileBody
	if err := readJSON(cartFile, &body); err != nil {
		return err
	}

	res, err := optimizer.NewService(&cfg.Optimizer).Plan(cmd.Context(), body.Items)
	if err != nil {
		return err
	}

	if strings.ToLower(cartOutput) == "json" {
		return outputJSON(os.Stdout, res)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Platform\tItems\tCost\tSavings\n")
	fmt.Fprintf(w, "--------\t-----\t----\t-------\n")
	for _, s := range res.Suggestions {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\n", s.Platform, strings.Join(s.Items, ", "), s.TotalCost, s.Savings)
	}
	w.Flush()
	fmt.Printf("\nTotal cost: %.2f, savings vs first available: %.2f\n", res.TotalCost, res.TotalSavings)
	return nil
}
