// Schema Generator
//
// Generates JSON Schema files from the HTTP API types so clients in other
// languages can generate their own models. The Go structs are the source of truth.
//
// Usage:
//
//	go run ./cmd/schema-gen [-out schemas]
//
// Output:
//
//	schemas/optimize.json
//	schemas/catalog.json
//	schemas/ingestion.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/bossing/basket-service/internal/handlers"
	"github.com/bossing/basket-service/internal/ingestion"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func schemaGroups() []SchemaGroup {
	return []SchemaGroup{
		{
			Name: "optimize",
			Types: []any{
				// Request types
				handlers.OptimizeItem{},
				handlers.Location{},
				handlers.OptimizeRequest{},
				// Response types
				handlers.StoreInfo{},
				handlers.BasketLine{},
				handlers.RouteStop{},
				handlers.Route{},
				handlers.RequestEcho{},
				handlers.OptimizeResponse{},
				handlers.PreviewResponse{},
				handlers.ErrorResponse{},
			},
			Output: "optimize.json",
		},
		{
			Name: "catalog",
			Types: []any{
				handlers.SupermarketsResponse{},
				handlers.ProductPrice{},
				handlers.Product{},
				handlers.SearchResponse{},
				handlers.HealthResponse{},
				handlers.RefreshResponse{},
			},
			Output: "catalog.json",
		},
		{
			Name: "ingestion",
			Types: []any{
				ingestion.Record{},
				ingestion.Result{},
			},
			Output: "ingestion.json",
		},
	}
}

func main() {
	outputDir := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, group := range schemaGroups() {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(*outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{}

	definitions := make(map[string]any)
	for _, t := range group.Types {
		schema := reflector.Reflect(t)
		for name, def := range schema.Definitions {
			definitions[name] = def
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://basket-service.local/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
