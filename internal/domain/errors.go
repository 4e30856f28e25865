package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrAlreadyPosted      = errors.New("el lote ya fue contabilizado")
	ErrNoIngredientsFound = errors.New("no se encontraron ingredientes para las recetas")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrLotMutationFailed  = errors.New("la fila de stock cambió durante el descuento")
)

// StockShortageError detalla un faltante detectado bajo bloqueo en un ledger concreto.
// errors.Is(err, ErrInsufficientStock) es true.
type StockShortageError struct {
	Ledger      string
	ItemID      string
	WarehouseID string
	Required    decimal.Decimal
	Missing     decimal.Decimal
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("%s: ledger %s, item %s, bodega %s, requerido %s, faltante %s",
		ErrInsufficientStock, e.Ledger, e.ItemID, e.WarehouseID, e.Required.String(), e.Missing.String())
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }

// LedgerMutationError indica que el UPDATE de una fila bloqueada no afectó filas.
type LedgerMutationError struct {
	Ledger string
	RowID  string
	ItemID string
}

func (e *LedgerMutationError) Error() string {
	return fmt.Sprintf("%s: ledger %s, fila %s, item %s", ErrLotMutationFailed, e.Ledger, e.RowID, e.ItemID)
}

func (e *LedgerMutationError) Unwrap() error { return ErrLotMutationFailed }
