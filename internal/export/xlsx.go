package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

// ChequeRow is one line of the cheque register.
type ChequeRow struct {
	ChequeNumber string
	Date         string
	Payee        string
	Memo         string
	BankName     string
	AccountNo    string
	Amount       decimal.Decimal
	Status       string
}

var chequeRegisterHeader = []string{"Cheque No.", "Date", "Payee", "Memo", "Bank", "Account", "Amount", "Status"}

// amountColumn is the index of "Amount" in chequeRegisterHeader.
const amountColumn = 6

// WriteChequeRegister writes the cheques as a single-sheet workbook with a header row
// and a closing total of non-cancelled amounts.
func WriteChequeRegister(w io.Writer, businessName string, rows []ChequeRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Cheques")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	title := sheet.AddRow()
	title.AddCell().SetString(fmt.Sprintf("Cheque register: %s", businessName))

	header := sheet.AddRow()
	for _, name := range chequeRegisterHeader {
		header.AddCell().SetString(name)
	}

	total := decimal.Zero
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ChequeNumber)
		row.AddCell().SetString(r.Date)
		row.AddCell().SetString(r.Payee)
		row.AddCell().SetString(r.Memo)
		row.AddCell().SetString(r.BankName)
		row.AddCell().SetString(r.AccountNo)
		amount, _ := r.Amount.Float64()
		row.AddCell().SetFloatWithFormat(amount, "#,##0.00")
		row.AddCell().SetString(r.Status)
		if r.Status != "cancelled" {
			total = total.Add(r.Amount)
		}
	}

	// The total sits under the Amount column.
	footer := sheet.AddRow()
	footer.AddCell().SetString("Total issued")
	for i := 1; i < amountColumn; i++ {
		footer.AddCell()
	}
	totalValue, _ := total.Float64()
	footer.AddCell().SetFloatWithFormat(totalValue, "#,##0.00")

	return file.Write(w)
}
