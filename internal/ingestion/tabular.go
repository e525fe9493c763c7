package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/matching"
)

// Column is a logical price-list column.
type Column string

const (
	ColumnID           Column = "id"
	ColumnName         Column = "name"
	ColumnPrice        Column = "price"
	ColumnUnit         Column = "unit"
	ColumnPricePerUnit Column = "price_per_unit"
	ColumnBrand        Column = "brand"
	ColumnCategory     Column = "category"
	ColumnImageURL     Column = "image_url"
	ColumnAvailable    Column = "available"
)

// headerAliases maps normalized header text to columns. Catalan, Spanish and
// English headings are accepted.
var headerAliases = map[string]Column{
	"id":              ColumnID,
	"codi":            ColumnID,
	"codigo":          ColumnID,
	"sku":             ColumnID,
	"ref":             ColumnID,
	"referencia":      ColumnID,
	"nom":             ColumnName,
	"nombre":          ColumnName,
	"name":            ColumnName,
	"producte":        ColumnName,
	"producto":        ColumnName,
	"product":         ColumnName,
	"preu":            ColumnPrice,
	"precio":          ColumnPrice,
	"price":           ColumnPrice,
	"pvp":             ColumnPrice,
	"unitat":          ColumnUnit,
	"unidad":          ColumnUnit,
	"unit":            ColumnUnit,
	"preu unitat":     ColumnPricePerUnit,
	"preu per unitat": ColumnPricePerUnit,
	"precio unidad":   ColumnPricePerUnit,
	"price per unit":  ColumnPricePerUnit,
	"marca":           ColumnBrand,
	"brand":           ColumnBrand,
	"categoria":       ColumnCategory,
	"category":        ColumnCategory,
	"imatge":          ColumnImageURL,
	"imagen":          ColumnImageURL,
	"image":           ColumnImageURL,
	"image url":       ColumnImageURL,
	"disponible":      ColumnAvailable,
	"available":       ColumnAvailable,
}

// findHeader locates the first row naming both a name and a price column.
func findHeader(rows [][]string) (int, map[Column]int, bool) {
	for i, row := range rows {
		columns := make(map[Column]int)
		for j, cell := range row {
			if col, ok := headerAliases[matching.Normalize(strings.ReplaceAll(cell, "_", " "))]; ok {
				if _, dup := columns[col]; !dup {
					columns[col] = j
				}
			}
		}
		_, hasName := columns[ColumnName]
		_, hasPrice := columns[ColumnPrice]
		if hasName && hasPrice {
			return i, columns, true
		}
	}
	return 0, nil, false
}

// parseTable converts the rows of one price table, starting after its header.
// Rows that cannot be parsed are skipped and counted.
func parseTable(store catalog.Store, category string, rows [][]string, fetchedAt time.Time) ([]Record, error) {
	headerRow, columns, ok := findHeader(rows)
	if !ok {
		return nil, fmt.Errorf("table %q has no name/price header", category)
	}

	records := make([]Record, 0, len(rows)-headerRow-1)
	skipped := 0
	for i := headerRow + 1; i < len(rows); i++ {
		rec, err := parseRow(store, rows[i], columns, category, fetchedAt)
		if err != nil {
			skipped++
			log.Debug().
				Str("store", store.Slug).
				Str("category", category).
				Int("row", i+1).
				Err(err).
				Msg("Skipping price list row")
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}

	if skipped > 0 {
		log.Warn().
			Str("store", store.Slug).
			Str("category", category).
			Int("skipped", skipped).
			Int("parsed", len(records)).
			Msg("Price list rows skipped")
	}
	return records, nil
}

// parseRow converts one data row. Blank rows yield nil without error.
func parseRow(store catalog.Store, row []string, columns map[Column]int, category string, fetchedAt time.Time) (*Record, error) {
	cell := func(c Column) string {
		i, ok := columns[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	name := cell(ColumnName)
	rawPrice := cell(ColumnPrice)
	if name == "" && rawPrice == "" {
		return nil, nil
	}
	if matching.Normalize(name) == "" {
		return nil, fmt.Errorf("missing name")
	}

	price, err := catalog.ParseEuros(rawPrice)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		CatalogID:    cell(ColumnID),
		Name:         name,
		StoreID:      store.ID,
		Price:        price,
		PricePerUnit: price,
		Available:    true,
		FetchedAt:    fetchedAt,
	}
	if rec.CatalogID == "" {
		rec.CatalogID = DeriveCatalogID(store.Slug, name)
	}

	if raw := cell(ColumnPricePerUnit); raw != "" {
		perUnit, err := catalog.ParseEuros(raw)
		if err != nil {
			return nil, fmt.Errorf("price per unit: %w", err)
		}
		rec.PricePerUnit = perUnit
	}

	size, unit, hasSize := matching.ExtractSize(name)
	if hasSize {
		rec.Size = &size
	}
	switch raw := cell(ColumnUnit); {
	case raw != "":
		rec.Unit = matching.NormalizeUnit(raw)
	case hasSize:
		rec.Unit = unit
	default:
		rec.Unit = "ud"
	}

	if c := cell(ColumnCategory); c != "" {
		rec.Category = &c
	} else {
		rec.Category = &category
	}
	if b := cell(ColumnBrand); b != "" {
		rec.Brand = &b
	}
	if img := cell(ColumnImageURL); img != "" {
		rec.ImageURL = &img
	}
	if raw := cell(ColumnAvailable); raw != "" {
		rec.Available = parseAvailable(raw)
	}
	return rec, nil
}

// DeriveCatalogID builds a stable id for sources that do not publish one.
func DeriveCatalogID(storeSlug, name string) string {
	return storeSlug + "-" + strings.ReplaceAll(matching.Normalize(name), " ", "-")
}

func parseAvailable(raw string) bool {
	switch matching.Normalize(raw) {
	case "no", "n", "false", "0", "esgotat", "agotado":
		return false
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return true
}
