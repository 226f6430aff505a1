package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"
)

var catalogHeaders = []string{
	"ID", "Name", "Name (Hindi)", "Category", "Unit", "Price Per Unit",
	"Minimum Order", "Available", "Active", "Images", "Created At", "Updated At",
}

// ExportOwn writes the caller's catalog to w as an xlsx workbook
func (m *CatalogManager) ExportOwn(ctx context.Context, w io.Writer) (err error) {
	defer observe("catalog_export", &err)

	products, err := m.ListOwn(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Catalog")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range catalogHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID.String())
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.NameHindi)
		row.AddCell().SetValue(string(p.Category))
		row.AddCell().SetValue(string(p.Unit))
		row.AddCell().SetValue(p.PricePerUnit.StringFixed(2))
		row.AddCell().SetValue(p.MinimumOrderQuantity)
		if p.AvailableQuantity != nil {
			row.AddCell().SetValue(*p.AvailableQuantity)
		} else {
			row.AddCell().SetValue("unlimited")
		}
		row.AddCell().SetValue(p.IsActive)
		row.AddCell().SetValue(strings.Join(p.ImageURLs, "\n"))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
