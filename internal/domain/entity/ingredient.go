package entity

import "github.com/shopspring/decimal"

// Estado de disponibilidad en la vista previa de explosión.
const (
	ExplosionStatusOK       = "OK"
	ExplosionStatusShortage = "Shortage"
)

// IngredientRequirement cantidad requerida de un insumo; se recalcula en cada contabilización.
type IngredientRequirement struct {
	ItemID      string
	RequiredQty decimal.Decimal
}

// ExplosionRow fila de la vista previa de explosión (no muta stock).
type ExplosionRow struct {
	IngredientItemID string
	IngredientName   string
	RequiredQty      decimal.Decimal
	AvailableQty     decimal.Decimal
	Status           string
}
