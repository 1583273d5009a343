package cod

import (
	"fmt"

	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/shopspring/decimal"
)

// BatchPolicy reglas configurables de composición de una remesa.
// El valor cero no impone restricciones adicionales.
type BatchPolicy struct {
	MinTotalAmount   decimal.Decimal // 0 = sin mínimo
	MaxItems         int             // 0 = sin límite
	RequireFullBatch bool            // la selección debe cubrir todos los registros elegibles del cliente
}

// CheckSize valida la cantidad de registros antes de abrir la transacción.
func (p BatchPolicy) CheckSize(n int) error {
	if p.MaxItems > 0 && n > p.MaxItems {
		return fmt.Errorf("%w: %d registros, máximo %d", domain.ErrPolicyViolation, n, p.MaxItems)
	}
	return nil
}

// CheckTotal valida el total calculado del lote.
func (p BatchPolicy) CheckTotal(total decimal.Decimal) error {
	if p.MinTotalAmount.IsPositive() && total.LessThan(p.MinTotalAmount) {
		return fmt.Errorf("%w: total %s inferior al mínimo %s", domain.ErrPolicyViolation, total.StringFixed(2), p.MinTotalAmount.StringFixed(2))
	}
	return nil
}

// CheckCoverage exige, si la política lo pide, que la selección sea todo el conjunto elegible.
func (p BatchPolicy) CheckCoverage(selected []string, eligible []string) error {
	if !p.RequireFullBatch {
		return nil
	}
	sel := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		sel[id] = struct{}{}
	}
	missing := 0
	for _, id := range eligible {
		if _, ok := sel[id]; !ok {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%w: faltan %d registros elegibles del cliente", domain.ErrPolicyViolation, missing)
	}
	return nil
}
