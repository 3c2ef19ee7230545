package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/table-order/utils"
	"github.com/yeremiapane/table-order/views"
)

// WriteReportPDF renders an admin report as an A4 table of completed orders.
func WriteReportPDF(w io.Writer, report views.AdminReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Orders report (%s)", report.Window), true)
	pdf.SetCreationDate(report.To)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Completed orders"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	period := fmt.Sprintf("%s: %s to %s",
		strings.ToUpper(string(report.Window)),
		report.From.Format("2006-01-02"),
		report.To.AddDate(0, 0, -1).Format("2006-01-02"))
	pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Orders: %d   Revenue: %s", report.Count, utils.FormatARS(report.Revenue)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{20, 20, 40, 70, 30}
	headers := []string{"Order", "Table", "Date", "Items", "Total"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, o := range report.Orders {
		names := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			names = append(names, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
		}
		items := truncate(strings.Join(names, ", "), 45)

		pdf.CellFormat(widths[0], 6, fmt.Sprintf("#%d", o.ID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", o.TableNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, o.CreatedAt.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, tr(items), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, utils.FormatARS(o.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return pdf.Output(w)
}

// truncate shortens s to at most n characters, ending in "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
