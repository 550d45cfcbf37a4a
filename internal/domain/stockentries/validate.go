package stockentries

import "github.com/Spok95/school-supply/internal/apperr"

func (in Input) Validate() error {
	if in.MaterialID <= 0 {
		return apperr.Validation("material_id é obrigatório")
	}
	if in.SupplierID <= 0 {
		return apperr.Validation("supplier_id é obrigatório")
	}
	if in.Quantity <= 0 {
		return apperr.Validation("quantity deve ser maior que zero")
	}
	if in.UnitPrice.Valid && in.UnitPrice.Decimal.IsNegative() {
		return apperr.Validation("unit_price não pode ser negativo")
	}
	return nil
}
