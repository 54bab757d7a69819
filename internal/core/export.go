package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"gwi.com/beauty-box/internal/store"
)

var orderExportHeaders = []string{
	"ID", "Date", "Status", "Kind", "Items", "Quantity", "Total", "ShippingAddress", "TrackingNumber", "FileName",
}

// WriteOrdersXLSX writes one row per order, newest first, as an .xlsx workbook.
func WriteOrdersXLSX(w io.Writer, orders []store.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		names := make([]string, len(o.Items))
		qty := 0
		for i, it := range o.Items {
			names[i] = it.Name
			qty += it.Quantity
		}
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.Date.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(orderKind(o))
		row.AddCell().SetValue(strings.Join(names, ", "))
		row.AddCell().SetValue(qty)
		row.AddCell().SetValue(o.Total)
		row.AddCell().SetValue(o.ShippingAddress)
		row.AddCell().SetValue(o.TrackingNumber)
		row.AddCell().SetValue(o.FileName)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportXLSX writes the session's order history as a workbook.
func (s *OrderService) ExportXLSX(ns string, w io.Writer) error {
	orders, _ := s.History(ns)
	return WriteOrdersXLSX(w, orders)
}
