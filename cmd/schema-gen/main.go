// Schema Generator
//
// Generates JSON Schema files and the OpenAPI document from the Go API types,
// for client code generation.
//
// Usage:
//
//	go run ./cmd/schema-gen [output-dir]
//
// Output (default directory ./schemas):
//
//	search.json
//	cart.json
//	user.json
//	operations.json
//	openapi.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/kosarica/price-aggregator/internal/handlers"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []string
	Output string
}

var groups = []SchemaGroup{
	{
		Name:   "search",
		Types:  []string{"SearchRequest", "SearchResponse", "PriceRecord", "LocationPlatformsResponse", "Location"},
		Output: "search.json",
	},
	{
		Name:   "cart",
		Types:  []string{"OptimizeCartRequest", "OptimizeResult", "PlanCartRequest", "PlanResult", "ApplyCartRequest", "ApplyCartResponse"},
		Output: "cart.json",
	},
	{
		Name:   "user",
		Types:  []string{"Cart", "UserLocation"},
		Output: "user.json",
	},
	{
		Name:   "operations",
		Types:  []string{"HealthResponse", "AdaptersResponse", "ErrorResponse"},
		Output: "operations.json",
	},
}

func main() {
	outputDir := "schemas"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	all := handlers.SchemaTypes()
	if err := checkCoverage(all); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, group := range groups {
		schema := generateGroupSchema(group, all)
		outputPath := filepath.Join(outputDir, group.Output)

		if err := writeJSON(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outputPath)
	}

	openapiPath := filepath.Join(outputDir, "openapi.json")
	if err := writeJSON(handlers.OpenAPIDocument(os.Getenv("VERSION")), openapiPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write openapi.json: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s\n", openapiPath)

	fmt.Println("Schema generation complete!")
}

// checkCoverage fails when an API type belongs to no group.
func checkCoverage(all map[string]any) error {
	grouped := make(map[string]bool)
	for _, g := range groups {
		for _, name := range g.Types {
			if _, ok := all[name]; !ok {
				return fmt.Errorf("group %s: unknown type %s", g.Name, name)
			}
			grouped[name] = true
		}
	}
	var missing []string
	for name := range all {
		if !grouped[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("types in no schema group: %s", strings.Join(missing, ", "))
	}
	return nil
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup, all map[string]any) map[string]any {
	definitions := make(map[string]*jsonschema.Schema, len(group.Types))
	for _, name := range group.Types {
		definitions[name] = handlers.Reflect(all[name])
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://price-aggregator.dev/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeJSON writes v to an indented JSON file
func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
