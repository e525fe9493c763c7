package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/matching"
)

// WorkbookSource yields the workbooks an XLSXAdapter reads.
type WorkbookSource func(ctx context.Context) ([]Workbook, error)

// XLSXAdapter reads a store price list published as one or more workbooks.
// Every worksheet is a category.
type XLSXAdapter struct {
	store  catalog.Store
	source WorkbookSource
	now    func() time.Time
}

// NewXLSXAdapter creates an adapter over an arbitrary workbook source.
func NewXLSXAdapter(store catalog.Store, source WorkbookSource) *XLSXAdapter {
	return &XLSXAdapter{store: store, source: source, now: time.Now}
}

// NewXLSXFileAdapter reads an .xlsx file, or every workbook inside a .zip bundle.
// The file is re-read on every call so updates are picked up.
func NewXLSXFileAdapter(store catalog.Store, path string) *XLSXAdapter {
	return NewXLSXAdapter(store, func(ctx context.Context) ([]Workbook, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read price list: %w", err)
		}
		if strings.EqualFold(filepath.Ext(path), ".zip") {
			return ExpandWorkbooks(ctx, content, DefaultArchiveLimits())
		}
		return []Workbook{{Name: filepath.Base(path), Content: content}}, nil
	})
}

func (a *XLSXAdapter) Slug() string         { return a.store.Slug }
func (a *XLSXAdapter) Store() catalog.Store { return a.store }

// sheet is one worksheet of one workbook.
type sheet struct {
	category string
	rows     [][]string
}

func (a *XLSXAdapter) sheets(ctx context.Context) ([]sheet, error) {
	workbooks, err := a.source(ctx)
	if err != nil {
		return nil, err
	}

	var out []sheet
	for _, wb := range workbooks {
		f, err := excelize.OpenReader(bytes.NewReader(wb.Content))
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", wb.Name, err)
		}
		for _, name := range f.GetSheetList() {
			rows, err := f.GetRows(name)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to read sheet %s/%s: %w", wb.Name, name, err)
			}
			category := name
			if len(workbooks) > 1 {
				category = strings.TrimSuffix(wb.Name, filepath.Ext(wb.Name)) + "/" + name
			}
			out = append(out, sheet{category: category, rows: rows})
		}
		f.Close()
	}
	return out, nil
}

// ListCategories returns one category per worksheet that has a usable header.
func (a *XLSXAdapter) ListCategories(ctx context.Context) ([]string, error) {
	sheets, err := a.sheets(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(sheets))
	for _, s := range sheets {
		if _, _, ok := findHeader(s.rows); ok {
			categories = append(categories, s.category)
		}
	}
	return categories, nil
}

// Fetch returns the records of one worksheet.
func (a *XLSXAdapter) Fetch(ctx context.Context, category string) ([]Record, error) {
	sheets, err := a.sheets(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sheets {
		if s.category == category {
			return parseTable(a.store, s.category, s.rows, a.now())
		}
	}
	return nil, fmt.Errorf("unknown category %q", category)
}

// SearchByText returns the records of every worksheet whose normalized name
// contains the normalized query.
func (a *XLSXAdapter) SearchByText(ctx context.Context, query string) ([]Record, error) {
	needle := matching.Normalize(query)
	if needle == "" {
		return []Record{}, nil
	}
	sheets, err := a.sheets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, s := range sheets {
		records, err := parseTable(a.store, s.category, s.rows, a.now())
		if err != nil {
			continue
		}
		for _, rec := range records {
			if strings.Contains(matching.Normalize(rec.Name), needle) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}
