package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del lote de producción. Draft -> Posted, nunca al revés.
const (
	BatchStatusDraft  = "Draft"
	BatchStatusPosted = "Posted"
)

// IsPostedStatus compara el estado sin distinguir mayúsculas.
func IsPostedStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), BatchStatusPosted)
}

// BatchHeader representa la cabecera de un lote de producción.
type BatchHeader struct {
	ID               string
	ProductionPlanID string
	WarehouseID      string
	BatchNo          string
	Status           string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedBy        string
	UpdatedAt        *time.Time
	PostedBy         string
	PostedAt         *time.Time

	PlanNo string // solo lectura (join con production_plans)
}

// IsPosted indica si el lote ya es inmutable.
func (b *BatchHeader) IsPosted() bool {
	return IsPostedStatus(b.Status)
}

// BatchLine es una línea del lote; pertenece exclusivamente a su cabecera.
type BatchLine struct {
	ID             string
	BatchHeaderID  string
	RecipeID       string
	FinishedItemID *string
	PlannedQty     decimal.Decimal
	ActualQty      decimal.Decimal
	CreatedAt      time.Time

	FinishedItemName string // solo lectura (join con items)
}
