// Package export renders the ledgers as downloadable documents: an XLSX
// workbook holding both ledgers and a printable PDF of one tithe month.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"igreja/internal/core"
	"igreja/internal/ledger"
)

// Sheet names of the exported workbook.
const (
	TitheSheet      = "Dizimos"
	AttendanceSheet = "Presenca"
)

// amountFormat is the builtin "#,##0.00" number format.
const amountFormat = 4

// WriteWorkbook writes both ledgers to w as an XLSX workbook with one sheet
// per ledger. Columns match the CSV layout; amounts and counters are
// numeric cells.
func WriteWorkbook(w io.Writer, tithes []core.TitheRecord, attendance []core.AttendanceRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), TitheSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(AttendanceSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	titheRows := make([][]any, 0, len(tithes))
	for _, r := range tithes {
		titheRows = append(titheRows, []any{r.Month.String(), r.Leader, r.Amount.Reais(), string(r.Paid)})
	}
	if err := writeSheet(f, TitheSheet, ledger.TitheHeader(), titheRows); err != nil {
		return err
	}
	if len(tithes) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
		if err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
		if err := f.SetCellStyle(TitheSheet, "C2", fmt.Sprintf("C%d", len(tithes)+1), style); err != nil {
			return fmt.Errorf("apply amount style: %w", err)
		}
	}

	attendanceRows := make([][]any, 0, len(attendance))
	for _, r := range attendance {
		row := []any{r.Month.String(), r.Discipler, string(r.Type)}
		for _, s := range r.Slots {
			for _, k := range core.CounterKinds() {
				row = append(row, s.Value(k))
			}
		}
		attendanceRows = append(attendanceRows, row)
	}
	if err := writeSheet(f, AttendanceSheet, ledger.AttendanceHeader(), attendanceRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%s panes: %w", sheet, err)
	}
	return nil
}
