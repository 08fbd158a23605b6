//go:build integration

package google

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"igreja/internal/core"
)

// Integration tests require real Google Sheets credentials and write to
// scratch tabs of GOOGLE_SPREADSHEET_ID.
// Run with: go test -tags=integration ./internal/ledger/google

func TestIntegration_LedgerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	suffix := time.Now().Format("20060102150405")
	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		TitheSheet:      fmt.Sprintf("it-dizimos-%s", suffix),
		AttendanceSheet: fmt.Sprintf("it-presenca-%s", suffix),
	})
	if err != nil {
		t.Skipf("credentials not usable: %v", err)
	}

	t.Run("Tithes", func(t *testing.T) {
		want := []core.TitheRecord{
			{Month: 1, Leader: "Integração", Amount: core.Money{Cents: 15050}, Paid: core.Paid},
			{Month: 2, Leader: "Integração", Amount: core.Money{}, Paid: core.NotPaid},
		}
		if err := client.WriteTithes(ctx, want); err != nil {
			t.Fatalf("WriteTithes: %v", err)
		}
		got, err := client.ReadTithes(ctx)
		if err != nil {
			t.Fatalf("ReadTithes: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d rows, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("row %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("Attendance", func(t *testing.T) {
		rec := core.AttendanceRecord{Month: 2, Discipler: "Integração", Type: core.Cell}
		rec.Slots[0] = core.Slot{Members: 5, Active: 2, Visitors: 1}
		rec.Slots[4] = core.Slot{Members: 9}
		if err := client.WriteAttendance(ctx, []core.AttendanceRecord{rec}); err != nil {
			t.Fatalf("WriteAttendance: %v", err)
		}
		got, err := client.ReadAttendance(ctx)
		if err != nil {
			t.Fatalf("ReadAttendance: %v", err)
		}
		if len(got) != 1 || got[0] != rec {
			t.Errorf("got %+v, want %+v", got, rec)
		}
	})
}
