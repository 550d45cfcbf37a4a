// Package reports renders spreadsheets for download and reads entry imports.
package reports

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-supply/internal/domain/materials"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
)

const dateLayout = "02/01/2006"

func writeSheet(header []interface{}, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StockWorkbook lists every material with its balance. The first column is the
// material id expected by the entry import.
func StockWorkbook(ms []materials.Material) ([]byte, error) {
	header := []interface{}{"material_id", "nome", "categoria", "unidade", "estoque_atual", "estoque_minimo", "situacao"}
	rows := make([][]interface{}, 0, len(ms))
	for _, m := range ms {
		status := "ok"
		if m.LowStock() {
			status = "baixo"
		}
		rows = append(rows, []interface{}{m.ID, m.Name, m.Category, m.Unit, m.CurrentStock, m.MinStock, status})
	}
	return writeSheet(header, rows)
}

func EntriesWorkbook(es []stockentries.Entry) ([]byte, error) {
	header := []interface{}{"data", "material", "unidade", "fornecedor", "quantidade", "preco_unitario", "total", "lote", "validade", "registrado_por"}
	rows := make([][]interface{}, 0, len(es))
	for _, e := range es {
		var price, expiry interface{}
		if e.UnitPrice.Valid {
			price = e.UnitPrice.Decimal.InexactFloat64()
		}
		if e.ExpiryDate != nil {
			expiry = e.ExpiryDate.Format(dateLayout)
		}
		rows = append(rows, []interface{}{
			e.CreatedAt.Format(dateLayout),
			e.MaterialName,
			e.MaterialUnit,
			e.SupplierName,
			e.Quantity,
			price,
			e.TotalPrice().InexactFloat64(),
			e.Batch,
			expiry,
			e.CreatedByName,
		})
	}
	return writeSheet(header, rows)
}
