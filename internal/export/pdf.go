/**
 * @description
 * This package renders ledger documents for download: invoices and purchase orders as
 * PDF, and the cheque register as an XLSX workbook.
 *
 * @dependencies
 * - github.com/jung-kurt/gofpdf: PDF generation.
 * - github.com/tealeg/xlsx: XLSX generation.
 */

package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Party is a name/contact block printed on a document.
type Party struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Line is one printed line item.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// Document is an invoice or purchase order ready for rendering.
type Document struct {
	Title             string // "INVOICE" or "PURCHASE ORDER"
	Number            string
	Status            string
	Issuer            Party
	CounterpartyLabel string // "Bill To" or "Supplier"
	Counterparty      Party
	Date              string
	SecondDateLabel   string // "Due Date" or "Expected Date"
	SecondDate        string
	Lines             []Line
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteDocumentPDF renders doc as a single A4 PDF to w.
func WriteDocumentPDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, doc.Issuer.Name)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(90, 10, doc.Title, "", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{doc.Issuer.Address, doc.Issuer.Phone, doc.Issuer.Email} {
		if line != "" {
			pdf.Cell(100, 5, line)
			pdf.Ln(5)
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(95, 6, doc.CounterpartyLabel)
	pdf.Cell(95, 6, fmt.Sprintf("No. %s", doc.Number))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 5, doc.Counterparty.Name)
	pdf.Cell(95, 5, fmt.Sprintf("Date: %s", doc.Date))
	pdf.Ln(5)
	pdf.Cell(95, 5, doc.Counterparty.Address)
	pdf.Cell(95, 5, fmt.Sprintf("%s: %s", doc.SecondDateLabel, doc.SecondDate))
	pdf.Ln(5)
	pdf.Cell(95, 5, doc.Counterparty.Email)
	pdf.Cell(95, 5, fmt.Sprintf("Status: %s", doc.Status))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 7, "Description", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Quantity", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Rate", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Lines {
		pdf.CellFormat(90, 7, line.Description, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, line.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, money(line.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, money(line.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	pdf.Ln(3)
	for _, row := range []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Subtotal", doc.Subtotal, false},
		{"Tax", doc.Tax, false},
		{"Total", doc.Total, true},
	} {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(155, 7, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, money(row.value), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	return pdf.Output(w)
}
