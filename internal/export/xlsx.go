// Package export renders order detail projections as downloadable XLSX
// workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"sap-orders/internal/catalog"
)

const sheetName = "Orden"

// OrderWorkbook renders one order (all rows share the same header fields)
// into a workbook: a header block, one row per line, and the document totals.
func OrderWorkbook(details []catalog.OrderDetail) ([]byte, error) {
	if len(details) == 0 {
		return nil, fmt.Errorf("no order rows to export")
	}
	head := details[0]

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to build style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("failed to build style: %w", err)
	}

	set := func(cell string, value any) {
		// SetCellValue only fails on a malformed axis, which these are not.
		_ = f.SetCellValue(sheetName, cell, value)
	}

	set("A1", head.SeriesName)
	set("B1", head.DocNum)
	set("A2", "Fecha")
	set("B2", head.DocDate.Format("02/01/2006"))
	set("A3", "Cliente")
	set("B3", fmt.Sprintf("%s - %s", head.CardCode, head.CardName))
	set("A4", "RUT")
	set("B4", head.TaxID)
	set("A5", "Dirección")
	set("B5", fmt.Sprintf("%s, %s", head.Address, head.City))
	set("A6", "Vendedor")
	set("B6", head.Salesperson)
	set("A7", "Condición de pago")
	set("B7", head.PaymentTerms)
	if head.Comments != "" {
		set("A8", "Comentarios")
		set("B8", head.Comments)
	}
	_ = f.SetCellStyle(sheetName, "A1", "A8", bold)

	const headerRow = 10
	columns := []string{"Código", "Descripción", "Cantidad", "Precio", "Total"}
	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, name)
	}
	_ = f.SetCellStyle(sheetName, "A10", "E10", bold)

	row := headerRow
	for _, d := range details {
		row++
		set(fmt.Sprintf("A%d", row), d.ItemCode)
		set(fmt.Sprintf("B%d", row), d.Description)
		set(fmt.Sprintf("C%d", row), d.Quantity.InexactFloat64())
		set(fmt.Sprintf("D%d", row), d.Price.InexactFloat64())
		set(fmt.Sprintf("E%d", row), d.LineTotal.InexactFloat64())
	}
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("D%d", headerRow+1), fmt.Sprintf("E%d", row), money)

	row += 2
	set(fmt.Sprintf("D%d", row), "Neto")
	set(fmt.Sprintf("E%d", row), head.TotalBeforeTax.InexactFloat64())
	set(fmt.Sprintf("D%d", row+1), "IVA")
	set(fmt.Sprintf("E%d", row+1), head.VatSum.InexactFloat64())
	set(fmt.Sprintf("D%d", row+2), "Total")
	set(fmt.Sprintf("E%d", row+2), head.DocTotal.InexactFloat64())
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row+2), bold)
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row+2), money)

	_ = f.SetColWidth(sheetName, "A", "A", 16)
	_ = f.SetColWidth(sheetName, "B", "B", 42)
	_ = f.SetColWidth(sheetName, "C", "E", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
