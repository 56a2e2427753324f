// Package export serialises report structures for the export collaborator.
// Everything emitted here is a plain value: no handles, no cycles.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/curastock/curastock/internal/ledger"
	"github.com/curastock/curastock/internal/reports"
)

// WriteSummaryCSV serialises the registry summary to CSV.
func WriteSummaryCSV(w io.Writer, summary reports.Summary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Total Items", formatInt(summary.TotalItems)},
		{"Low Stock", formatInt(summary.LowStockCount)},
		{"Out Of Stock", formatInt(summary.OutOfStockCount)},
		{"Total Consumed", formatInt(summary.TotalConsumed)},
		{"Total Rejected", formatInt(summary.TotalRejected)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMovementsCSV emits windowed ledger entries as CSV, preserving order.
func WriteMovementsCSV(w io.Writer, entries []ledger.Entry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"ID", "Item", "Direction", "Classification", "Quantity", "Remark", "Actor", "Occurred At"}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{
			formatInt(entry.ID),
			formatInt(entry.ItemID),
			string(entry.Direction),
			string(entry.Classification),
			formatInt(entry.Quantity),
			entry.Remark,
			entry.Actor,
			entry.OccurredAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCategoryCSV emits the category breakdown as CSV.
func WriteCategoryCSV(w io.Writer, rows []reports.CategoryRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Category", "Movements", "Total In", "Total Out"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Category,
			formatInt(row.MovementCount),
			formatInt(row.TotalIn),
			formatInt(row.TotalOut),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
