package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curastock/curastock/internal/ledger"
	"github.com/curastock/curastock/internal/reports"
)

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummaryCSV(&buf, reports.Summary{
		TotalItems:      12,
		LowStockCount:   3,
		OutOfStockCount: 1,
		TotalConsumed:   140,
		TotalRejected:   6,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "Metric,Value", lines[0])
	require.Equal(t, "Total Items,12", lines[1])
	require.Equal(t, "Total Rejected,6", lines[5])
}

func TestWriteMovementsCSV(t *testing.T) {
	occurred := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := WriteMovementsCSV(&buf, []ledger.Entry{
		{
			ID:             7,
			ItemID:         1,
			Direction:      ledger.DirectionOut,
			Classification: ledger.ClassificationRejected,
			Quantity:       2,
			Remark:         "Rejected: damaged, see note",
			Actor:          "nurse-kim",
			OccurredAt:     occurred,
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], `"Rejected: damaged, see note"`)
	require.Contains(t, lines[1], "2026-08-15T09:30:00Z")
}

func TestWriteCategoryCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCategoryCSV(&buf, []reports.CategoryRow{
		{Category: "consumables", MovementCount: 4, TotalIn: 30, TotalOut: 12},
		{Category: "pharmacy", MovementCount: 1, TotalIn: 0, TotalOut: 5},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Category,Movements,Total In,Total Out", lines[0])
	require.Equal(t, "consumables,4,30,12", lines[1])
	require.Equal(t, "pharmacy,1,0,5", lines[2])
}
