package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockLedgerRepository puerto común a los dos ledgers de stock (lotes y ubicaciones).
type StockLedgerRepository interface {
	// Ledger identifica el ledger (entity.LedgerLot o entity.LedgerBin).
	Ledger() string
	// LockAvailable bloquea todas las filas del ítem en la bodega con remanente > 0,
	// ordenadas por remanente ascendente y luego ID.
	LockAvailable(ctx context.Context, itemID, warehouseID string) ([]entity.LedgerRow, error)
	// Decrement descuenta qty de la fila si aún tiene remanente suficiente; devuelve filas afectadas.
	Decrement(ctx context.Context, rowID string, qty decimal.Decimal) (int64, error)
	// TotalAvailable suma el remanente por ítem en la bodega (sin bloqueo).
	TotalAvailable(ctx context.Context, itemIDs []string, warehouseID string) (map[string]decimal.Decimal, error)
}
