package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*StockLedgerRepo)(nil)

// ledgerTable describe cómo se lee y descuenta el remanente de un ledger.
type ledgerTable struct {
	ledger    string
	table     string
	remaining string // columna con el remanente
	decrement string // SET ... del UPDATE; $1 = cantidad
}

var (
	lotTable = ledgerTable{
		ledger:    entity.LedgerLot,
		table:     "stock_lots",
		remaining: "qty",
		decrement: "qty = qty - $1",
	}
	// En ubicaciones on_hand y available bajan juntos; el remanente validado es available.
	binTable = ledgerTable{
		ledger:    entity.LedgerBin,
		table:     "stock_bins",
		remaining: "available",
		decrement: "available = available - $1, on_hand = on_hand - $1",
	}
)

// StockLedgerRepo implementación de StockLedgerRepository para stock_lots o stock_bins.
type StockLedgerRepo struct {
	q Querier
	t ledgerTable
}

// NewStockLotRepository ledger de lotes (stock_lots.qty). Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q, t: lotTable}
}

// NewStockBinRepository ledger de ubicaciones (stock_bins.available). Pasar pool o tx (Querier).
func NewStockBinRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q, t: binTable}
}

func (r *StockLedgerRepo) Ledger() string { return r.t.ledger }

// LockAvailable SELECT ... FOR UPDATE de las filas con remanente, menor remanente primero.
func (r *StockLedgerRepo) LockAvailable(ctx context.Context, itemID, warehouseID string) ([]entity.LedgerRow, error) {
	if !validUUID(itemID) || !validUUID(warehouseID) {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT id, %[2]s
		FROM %[1]s
		WHERE item_id = $1 AND warehouse_id = $2 AND %[2]s > 0
		ORDER BY %[2]s ASC, id ASC
		FOR UPDATE`, r.t.table, r.t.remaining)
	rows, err := r.q.Query(ctx, query, itemID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", r.t.table, err)
	}
	defer rows.Close()

	var list []entity.LedgerRow
	for rows.Next() {
		var row entity.LedgerRow
		if err := rows.Scan(&row.ID, &row.Remaining); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.t.table, err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// Decrement descuenta qty solo si la fila aún tiene remanente suficiente.
func (r *StockLedgerRepo) Decrement(ctx context.Context, rowID string, qty decimal.Decimal) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $2 AND %s >= $1`, r.t.table, r.t.decrement, r.t.remaining)
	tag, err := r.q.Exec(ctx, query, qty, rowID)
	if err != nil {
		return 0, fmt.Errorf("decrement %s: %w", r.t.table, err)
	}
	return tag.RowsAffected(), nil
}

// TotalAvailable suma el remanente por ítem en la bodega; ítems sin filas quedan en cero.
func (r *StockLedgerRepo) TotalAvailable(ctx context.Context, itemIDs []string, warehouseID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = decimal.Zero
	}
	ids := uuidsOnly(itemIDs)
	if len(ids) == 0 || !validUUID(warehouseID) {
		return out, nil
	}
	query := fmt.Sprintf(`
		SELECT item_id, COALESCE(SUM(%[2]s), 0)
		FROM %[1]s
		WHERE warehouse_id = $1 AND item_id = ANY($2)
		GROUP BY item_id`, r.t.table, r.t.remaining)
	rows, err := r.q.Query(ctx, query, warehouseID, ids)
	if err != nil {
		return nil, fmt.Errorf("sum %s: %w", r.t.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID string
		var total decimal.Decimal
		if err := rows.Scan(&itemID, &total); err != nil {
			return nil, fmt.Errorf("scan %s total: %w", r.t.table, err)
		}
		out[itemID] = total
	}
	return out, rows.Err()
}
