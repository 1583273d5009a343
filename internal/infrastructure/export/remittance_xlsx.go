// Package export genera las liquidaciones de remesa que se envían al cliente.
package export

import (
	"bytes"
	"fmt"

	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

var _ ledger.StatementExporter = (*RemittanceXLSXExporter)(nil)

const (
	summarySheet = "resumen"
	itemsSheet   = "detalle"
	dateLayout   = "2006-01-02 15:04"
	// numFmtAmount formato integrado "#,##0.00".
	numFmtAmount = 4
)

// RemittanceXLSXExporter liquidación de remesa en XLSX: hoja resumen y hoja con un renglón por registro.
type RemittanceXLSXExporter struct{}

// NewRemittanceXLSXExporter construye el exportador.
func NewRemittanceXLSXExporter() *RemittanceXLSXExporter {
	return &RemittanceXLSXExporter{}
}

// ContentType MIME del archivo generado.
func (e *RemittanceXLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension extensión del archivo generado.
func (e *RemittanceXLSXExporter) Extension() string { return "xlsx" }

// Export arma el libro. records se indexa por ID; un ítem sin registro conserva su monto.
func (e *RemittanceXLSXExporter) Export(rem *entity.Remittance, records []*entity.CodRecord) ([]byte, error) {
	if rem == nil {
		return nil, fmt.Errorf("export: remesa nula")
	}
	byID := make(map[string]*entity.CodRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	summary := [][2]any{
		{"Liquidación de remesa COD", nil},
		{nil, nil},
		{"Remesa", rem.ID},
		{"Cliente", rem.ClientID},
		{"Fecha", rem.CreatedDate.UTC().Format(dateLayout)},
		{"Creada por", rem.CreatedBy},
		{"Registros", len(rem.Items)},
		{"Total", rem.TotalAmount.InexactFloat64()},
	}
	for i, row := range summary {
		n := i + 1
		if row[0] != nil {
			_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", n), row[0])
		}
		if row[1] != nil {
			_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", n), row[1])
		}
	}
	totalCell := fmt.Sprintf("B%d", len(summary))
	_ = f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)
	_ = f.SetCellStyle(summarySheet, totalCell, totalCell, amountStyle)
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)

	headers := []string{"Registro", "Orden", "Monto esperado", "Monto cobrado", "Fecha de cobro", "Monto remesado"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemsSheet, cell, h)
	}
	_ = f.SetCellStyle(itemsSheet, "A1", "F1", headerStyle)

	for i, it := range rem.Items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), it.CodRecordID)
		if r := byID[it.CodRecordID]; r != nil {
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), r.OrderID)
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), r.ExpectedAmount.InexactFloat64())
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), r.CollectedOrZero().InexactFloat64())
			if r.CollectedDate != nil {
				_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), r.CollectedDate.UTC().Format(dateLayout))
			}
		}
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), it.Amount.InexactFloat64())
	}
	if n := len(rem.Items); n > 0 {
		last := n + 1
		_ = f.SetCellStyle(itemsSheet, "C2", fmt.Sprintf("D%d", last), amountStyle)
		_ = f.SetCellStyle(itemsSheet, "F2", fmt.Sprintf("F%d", last), amountStyle)
		totalRow := last + 1
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", totalRow), "Total")
		_ = f.SetCellFormula(itemsSheet, fmt.Sprintf("F%d", totalRow), fmt.Sprintf("SUM(F2:F%d)", last))
		_ = f.SetCellStyle(itemsSheet, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("E%d", totalRow), headerStyle)
		_ = f.SetCellStyle(itemsSheet, fmt.Sprintf("F%d", totalRow), fmt.Sprintf("F%d", totalRow), amountStyle)
	}
	_ = f.SetColWidth(itemsSheet, "A", "B", 38)
	_ = f.SetColWidth(itemsSheet, "C", "F", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return buf.Bytes(), nil
}
