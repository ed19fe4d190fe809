package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet columns, in order. The first row is a header.
const (
	colName = iota
	colDescription
	colPrice
	colSalePrice
	colCategory
	colStock
	colImageURL
	colFeatures
	minColumns = colCategory + 1
)

// catalogRow is one importable product line.
type catalogRow struct {
	Name        string
	Description string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	Category    string
	Stock       int
	ImageURL    string
	Features    []string
}

// rowError explains why a spreadsheet line was skipped.
type rowError struct {
	Line   int
	Reason string
}

func (e rowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// readCatalog parses the first sheet of an XLSX workbook.
func readCatalog(r io.Reader) ([]catalogRow, []rowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	var (
		products []catalogRow
		skipped  []rowError
		seen     = make(map[string]bool)
	)
	for i, row := range rows[1:] {
		line := i + 2
		product, reason := parseCatalogRow(row)
		if reason != "" {
			skipped = append(skipped, rowError{Line: line, Reason: reason})
			continue
		}

		key := strings.ToLower(product.Category + "\x00" + product.Name)
		if seen[key] {
			skipped = append(skipped, rowError{Line: line, Reason: "duplicate product"})
			continue
		}
		seen[key] = true
		products = append(products, product)
	}

	return products, skipped, nil
}

func parseCatalogRow(row []string) (catalogRow, string) {
	if len(row) < minColumns {
		return catalogRow{}, "missing columns"
	}
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	product := catalogRow{
		Name:        cell(colName),
		Description: cell(colDescription),
		Category:    cell(colCategory),
		ImageURL:    cell(colImageURL),
	}
	if product.Name == "" {
		return catalogRow{}, "name is empty"
	}
	if product.Category == "" {
		return catalogRow{}, "category is empty"
	}

	price, err := decimal.NewFromString(cell(colPrice))
	if err != nil || !price.IsPositive() {
		return catalogRow{}, "invalid price"
	}
	product.Price = price.Round(2)

	if raw := cell(colSalePrice); raw != "" {
		sale, err := decimal.NewFromString(raw)
		if err != nil || !sale.IsPositive() || sale.GreaterThan(price) {
			return catalogRow{}, "invalid sale price"
		}
		sale = sale.Round(2)
		product.SalePrice = &sale
	}

	if raw := cell(colStock); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return catalogRow{}, "invalid stock"
		}
		product.Stock = stock
	}

	for _, feature := range strings.Split(cell(colFeatures), ";") {
		if feature = strings.TrimSpace(feature); feature != "" {
			product.Features = append(product.Features, feature)
		}
	}

	return product, ""
}
