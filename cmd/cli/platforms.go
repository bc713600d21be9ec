package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/location"
)

var (
	platformsOutput string
	platformsList   bool
)

// platformsCmd represents the platforms command
var platformsCmd = &cobra.Command{
	Use:   "platforms <city> <pincode>",
	Short: "List the platforms serving a location",
	Example: `  price-aggregator platforms Mumbai 400001
  price-aggregator platforms "Navi Mumbai" 400703 --output json
  price-aggregator platforms --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if platformsList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)

	platformsCmd.Flags().StringVarP(&platformsOutput, "output", "o", "table", "Output format (table, json)")
	platformsCmd.Flags().BoolVar(&platformsList, "list", false, "List every registered platform and the cities it serves")
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	if platformsList {
		return listPlatforms()
	}

	loc := location.Location{City: strings.TrimSpace(args[0]), Pincode: strings.TrimSpace(args[1])}
	if err := location.Check(loc); err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}

	avail, _, err := cfg.LoadRegistry()
	if err != nil {
		return err
	}

	if strings.ToLower(platformsOutput) == "json" {
		return outputJSON(os.Stdout, map[string]any{
			"location":   loc.Formatted(),
			"all":        avail.SupportedPlatforms(loc),
			"byCategory": avail.ByCategory(loc),
			"matches":    avail.Matches(loc),
		})
	}

	byCategory := avail.ByCategory(loc)
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fmt.Printf("\nPlatforms serving %s\n", loc.Formatted())
	fmt.Println(strings.Repeat("-", 60))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Category\tPlatforms\n")
	fmt.Fprintf(w, "--------\t---------\n")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\n", c, strings.Join(byCategory[c], ", "))
	}
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Platform\tMatch\tServed city\n")
	fmt.Fprintf(w, "--------\t-----\t-----------\n")
	for _, m := range avail.Matches(loc) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Platform, m.Tier, m.ServedCity)
	}
	w.Flush()
	return nil
}

func listPlatforms() error {
	avail, _, err := cfg.LoadRegistry()
	if err != nil {
		return err
	}

	var entries []availability.Entry
	for _, id := range avail.Platforms() {
		if e, ok := avail.Entry(id); ok {
			entries = append(entries, e)
		}
	}
	if strings.ToLower(platformsOutput) == "json" {
		return outputJSON(os.Stdout, map[string]any{"platforms": entries, "cities": avail.Cities()})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Platform\tCategory\tCities\n")
	fmt.Fprintf(w, "--------\t--------\t------\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\n", e.Platform, e.Category, len(e.Cities))
	}
	w.Flush()
	fmt.Printf("\n%d cities served: %s\n", len(avail.Cities()), strings.Join(avail.Cities(), ", "))
	return nil
}
