package entity

import "github.com/shopspring/decimal"

// Ledgers de stock. Son dos vistas contables del mismo pool y no comparten llaves.
const (
	LedgerLot = "lot"
	LedgerBin = "bin"
)

// StockLot parcela de stock asociada a un proveedor (ledger de lotes).
type StockLot struct {
	ID          string
	ItemID      string
	WarehouseID string
	SupplierID  string
	Qty         decimal.Decimal // remanente
}

// StockBin registro físico de ubicación (ledger de ubicaciones).
// OnHand y Available se descuentan juntos.
type StockBin struct {
	ID          string
	ItemID      string
	WarehouseID string
	BinID       string
	OnHand      decimal.Decimal
	Available   decimal.Decimal
}

// LedgerRow fila bloqueada de cualquiera de los dos ledgers, reducida a su remanente.
type LedgerRow struct {
	ID        string
	Remaining decimal.Decimal
}
