// Package invoice renders an order as a PDF document. Invoices are built
// only from the persisted order snapshot, so a regenerated invoice is
// identical even after the catalog has changed.
package invoice

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/ritvika/paintshop/internal/models"
)

// Render writes a PDF invoice for the order to w.
func Render(w io.Writer, o *models.Order) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 12, "Invoice", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order # %s", o.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", o.CreatedAt.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Billed to: %s", o.UserEmail), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(120, 120, 120)
	pdf.CellFormat(0, 0, "", "T", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 13)
	for _, item := range o.Items {
		line := fmt.Sprintf("%s - %d x %s %s", item.Title, item.Quantity,
			strings.ToUpper(o.Currency), models.FormatCents(item.UnitPriceCents))
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.CellFormat(0, 0, "", "T", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total: %s %s", strings.ToUpper(o.Currency),
		models.FormatCents(o.TotalCents)), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}
