package ingestion

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/matching"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource yields the raw bytes of one CSV price list.
type CSVSource func(ctx context.Context) ([]byte, error)

// CSVAdapter reads a store price list published as a single CSV file.
// The whole file is one category.
type CSVAdapter struct {
	store    catalog.Store
	category string
	source   CSVSource
	now      func() time.Time
}

// NewCSVAdapter creates an adapter over an arbitrary CSV source.
func NewCSVAdapter(store catalog.Store, category string, source CSVSource) *CSVAdapter {
	return &CSVAdapter{store: store, category: category, source: source, now: time.Now}
}

// NewCSVFileAdapter reads a CSV file. The category is the file base name.
func NewCSVFileAdapter(store catalog.Store, path string) *CSVAdapter {
	category := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewCSVAdapter(store, category, func(ctx context.Context) ([]byte, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read price list: %w", err)
		}
		return content, nil
	})
}

func (a *CSVAdapter) Slug() string         { return a.store.Slug }
func (a *CSVAdapter) Store() catalog.Store { return a.store }

func (a *CSVAdapter) rows(ctx context.Context) ([][]string, error) {
	content, err := a.source(ctx)
	if err != nil {
		return nil, err
	}
	text, err := DecodeText(content)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = DetectDelimiter(text)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// ListCategories returns the file category when it has a usable header.
func (a *CSVAdapter) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := a.rows(ctx)
	if err != nil {
		return nil, err
	}
	if _, _, ok := findHeader(rows); !ok {
		return []string{}, nil
	}
	return []string{a.category}, nil
}

// Fetch returns every record of the file.
func (a *CSVAdapter) Fetch(ctx context.Context, category string) ([]Record, error) {
	if category != a.category {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	rows, err := a.rows(ctx)
	if err != nil {
		return nil, err
	}
	return parseTable(a.store, a.category, rows, a.now())
}

// SearchByText returns the records whose normalized name contains the
// normalized query.
func (a *CSVAdapter) SearchByText(ctx context.Context, query string) ([]Record, error) {
	needle := matching.Normalize(query)
	if needle == "" {
		return []Record{}, nil
	}
	records, err := a.Fetch(ctx, a.category)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, rec := range records {
		if strings.Contains(matching.Normalize(rec.Name), needle) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DecodeText returns content as UTF-8. A BOM is stripped; anything that is
// not valid UTF-8 is read as Windows-1252, the usual export of spreadsheet
// tools for Catalan and Spanish text.
func DecodeText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("failed to decode windows-1252: %w", err)
	}
	return string(decoded), nil
}

// DetectDelimiter picks the separator that splits the first lines into the
// most consistent number of fields. Ties favour ',' then ';' then tab.
func DetectDelimiter(text string) rune {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 5 {
			break
		}
	}
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', -1.0
	for _, d := range []rune{',', ';', '\t'} {
		counts := make([]float64, len(lines))
		sum := 0.0
		for i, line := range lines {
			counts[i] = float64(strings.Count(line, string(d)))
			sum += counts[i]
		}
		if sum == 0 {
			continue
		}
		avg := sum / float64(len(counts))
		variance := 0.0
		for _, c := range counts {
			variance += (c - avg) * (c - avg)
		}
		variance /= float64(len(counts))

		if score := avg / (1 + variance); score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}
