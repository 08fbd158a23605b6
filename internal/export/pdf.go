package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"igreja/internal/core"
	"igreja/internal/report"
)

// WriteTithesPDF writes a one page summary of the tithes of month: the
// paid total, the status split and one line per leader.
func WriteTithesPDF(w io.Writer, rows []core.TitheRecord, month core.Month, year int) error {
	if err := month.Validate(); err != nil {
		return err
	}

	var selected []core.TitheRecord
	for _, r := range rows {
		if r.Month == month {
			selected = append(selected, r)
		}
	}
	split := report.StatusSplit(selected, month)
	title := fmt.Sprintf("Dízimos de %s de %d", month, year)

	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr("Total pago: "+report.SumPaid(selected).BRL()))
	pdf.Ln(6)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Pagos: %d   Pendentes: %d", split[core.Paid], split[core.NotPaid])))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(100, 7, tr("Líder"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, "Valor", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Pago", "B", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, r := range selected {
		pdf.CellFormat(100, 7, tr(r.Leader), "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, tr(r.Amount.BRL()), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, tr(string(r.Paid)), "", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
