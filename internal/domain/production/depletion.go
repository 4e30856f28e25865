package production

import (
	"sort"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Take cantidad a descontar de una fila concreta del ledger.
type Take struct {
	RowID string
	Qty   decimal.Decimal
}

// SortLedgerRows ordena por remanente ascendente y luego por ID ("el menor remanente primero").
func SortLedgerRows(rows []entity.LedgerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Remaining.Cmp(rows[j].Remaining); c != 0 {
			return c < 0
		}
		return rows[i].ID < rows[j].ID
	})
}

// PlanDepletion recorre las filas (ya bloqueadas y ordenadas) tomando min(remanente, pendiente)
// hasta cubrir required. Devuelve los descuentos y lo que quedó sin cubrir.
// Filas con toma <= 0 se omiten.
func PlanDepletion(rows []entity.LedgerRow, required decimal.Decimal) ([]Take, decimal.Decimal) {
	pending := required
	var takes []Take
	for _, row := range rows {
		if !pending.IsPositive() {
			break
		}
		take := decimal.Min(row.Remaining, pending)
		if !take.IsPositive() {
			continue
		}
		takes = append(takes, Take{RowID: row.ID, Qty: take})
		pending = pending.Sub(take)
	}
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	return takes, pending
}
