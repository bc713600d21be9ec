// Package export writes price comparisons as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kosarica/price-aggregator/internal/types"
)

const (
	SheetPrices  = "Prices"
	SheetSummary = "Summary"
)

var priceHeader = []any{
	"Platform", "Product", "Price", "Price status", "Delivery fee", "Total",
	"Offer", "Rating", "Delivery time", "In stock", "Cheapest", "Source", "Link",
}

// Comparison is one search result set and the query that produced it.
type Comparison struct {
	Query    string
	Category string
	Location string
	Source   types.DataSource
	Records  []types.PriceRecord
}

// WriteXLSX writes the comparison as a two-sheet workbook.
func WriteXLSX(w io.Writer, c Comparison) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPrices); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(SheetPrices, "A1", &priceHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(SheetPrices, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range c.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Platform, r.ProductName, r.Price, string(r.PriceStatus), r.DeliveryFee, r.TotalCost(),
			r.Offer, r.Rating, r.DeliveryTimeLabel, yesNo(r.InStock), yesNo(r.IsCheapest),
			string(r.DataSource), r.Link,
		}
		if err := f.SetSheetRow(SheetPrices, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(SheetPrices, "A", "B", 24); err != nil {
		return err
	}

	summary := [][]any{
		{"Query", c.Query},
		{"Category", c.Category},
		{"Location", c.Location},
		{"Data source", string(c.Source)},
		{"Results", len(c.Records)},
	}
	if cheapest, ok := Cheapest(c.Records); ok {
		summary = append(summary,
			[]any{"Cheapest platform", cheapest.Platform},
			[]any{"Cheapest total", cheapest.TotalCost()},
		)
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetColStyle(SheetSummary, "A", bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Cheapest returns the record flagged as cheapest.
func Cheapest(records []types.PriceRecord) (types.PriceRecord, bool) {
	for _, r := range records {
		if r.IsCheapest {
			return r, true
		}
	}
	return types.PriceRecord{}, false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
