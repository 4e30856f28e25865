package production

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/production"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

// depleteLedger descuenta required del ítem en la bodega sobre un ledger:
// bloquea las filas con remanente, vuelve a validar bajo bloqueo y descuenta
// empezando por el menor remanente.
func depleteLedger(ctx context.Context, ledger repository.StockLedgerRepository, itemID, warehouseID string, required decimal.Decimal) error {
	if !required.IsPositive() {
		return nil
	}
	rows, err := ledger.LockAvailable(ctx, itemID, warehouseID)
	if err != nil {
		return err
	}
	production.SortLedgerRows(rows)

	takes, missing := production.PlanDepletion(rows, required)
	if missing.IsPositive() {
		return &domain.StockShortageError{
			Ledger:      ledger.Ledger(),
			ItemID:      itemID,
			WarehouseID: warehouseID,
			Required:    required,
			Missing:     missing,
		}
	}

	for _, take := range takes {
		affected, err := ledger.Decrement(ctx, take.RowID, take.Qty)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &domain.LedgerMutationError{Ledger: ledger.Ledger(), RowID: take.RowID, ItemID: itemID}
		}
	}
	return nil
}
