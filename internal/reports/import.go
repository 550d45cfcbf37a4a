package reports

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
)

// Import columns, in order: material_id, supplier_id, quantidade, preco_unitario,
// lote, validade, observacoes. Only the first three are required.
const minImportColumns = 3

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// ParseEntries reads the active sheet of an .xlsx workbook. The first row is a header;
// blank rows are skipped and the first invalid row fails the whole import.
func ParseEntries(data []byte) ([]stockentries.Input, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Validation("não foi possível ler a planilha (arquivo .xlsx inválido)")
	}
	defer func() { _ = f.Close() }()

	// Raw values keep numbers and dates independent of the cell's display format.
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperr.Validation("não foi possível ler a planilha")
	}
	if len(rows) < 2 {
		return nil, apperr.Validation("a planilha não contém entradas")
	}
	if len(rows[0]) < minImportColumns {
		return nil, apperr.Validation("formato inválido: esperadas ao menos as colunas material_id, supplier_id e quantidade")
	}

	var out []stockentries.Input
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if cell(row, 0) == "" && cell(row, 2) == "" {
			continue
		}

		var in stockentries.Input
		if in.MaterialID, err = strconv.ParseInt(cell(row, 0), 10, 64); err != nil {
			return nil, apperr.Validation("linha %d: material_id inválido (%q)", line, cell(row, 0))
		}
		if in.SupplierID, err = strconv.ParseInt(cell(row, 1), 10, 64); err != nil {
			return nil, apperr.Validation("linha %d: supplier_id inválido (%q)", line, cell(row, 1))
		}
		if in.Quantity, err = strconv.Atoi(cell(row, 2)); err != nil || in.Quantity <= 0 {
			return nil, apperr.Validation("linha %d: quantidade inválida (%q)", line, cell(row, 2))
		}
		if s := cell(row, 3); s != "" {
			p, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
			if err != nil || p.IsNegative() {
				return nil, apperr.Validation("linha %d: preço unitário inválido (%q)", line, s)
			}
			in.UnitPrice = decimal.NewNullDecimal(p)
		}
		in.Batch = cell(row, 4)
		if s := cell(row, 5); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return nil, apperr.Validation("linha %d: validade inválida (%q), use DD/MM/AAAA", line, s)
			}
			in.ExpiryDate = &d
		}
		in.Notes = cell(row, 6)
		out = append(out, in)
	}
	if len(out) == 0 {
		return nil, apperr.Validation("a planilha não contém entradas")
	}
	return out, nil
}

// parseDate accepts an Excel date serial, DD/MM/AAAA or AAAA-MM-DD.
func parseDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	return time.Parse(time.DateOnly, s)
}
