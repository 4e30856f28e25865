package entity

import "time"

// ProductionPlan representa un plan de producción (solo lectura para este módulo).
// WarehouseID es la única fuente válida de la bodega al contabilizar un lote.
type ProductionPlan struct {
	ID          string
	PlanNo      string
	WarehouseID string
	PlanDate    *time.Time
}
