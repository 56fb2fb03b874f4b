package invoice

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/curelink/telemed-backend/internal/appointment"
)

// Render produces a one-page PDF receipt for a paid appointment.
func Render(d *appointment.Detail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "Curelink Consultation Invoice")
	pdf.Ln(16)

	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Invoice for", fmt.Sprintf("Appointment %s", d.ID)},
		{"Patient", d.PatientName},
		{"Doctor", fmt.Sprintf("%s (%s)", d.DoctorName, d.Specialization)},
		{"Date", d.VisitDate.Format("02 Jan 2006")},
		{"Time", fmt.Sprintf("%s - %s", d.Start.Label(), d.End.Label())},
		{"Visit type", string(d.VisitType)},
		{"Payment status", string(d.PaymentStatus)},
	}
	if d.PaymentOrderID != nil {
		rows = append(rows, [2]string{"Payment reference", *d.PaymentOrderID})
	}

	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(45, 10, "Amount paid", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, formatAmount(d.Amount), "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatAmount renders minor units as rupees.
func formatAmount(minor int64) string {
	return fmt.Sprintf("INR %d.%02d", minor/100, minor%100)
}
