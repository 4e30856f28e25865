package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchLineRequest línea del lote enviada por el cliente.
type BatchLineRequest struct {
	RecipeID       string          `json:"recipe_id" validate:"required"`
	FinishedItemID *string         `json:"finished_item_id,omitempty"`
	PlannedQty     decimal.Decimal `json:"planned_qty"`
	ActualQty      decimal.Decimal `json:"actual_qty"`
}

// PostBatchRequest body para POST /api/batch-production/post.
// ID vacío crea un lote nuevo; WarehouseID se ignora (la bodega sale del plan).
type PostBatchRequest struct {
	ID               string             `json:"id,omitempty"`
	ProductionPlanID string             `json:"production_plan_id" validate:"required"`
	WarehouseID      string             `json:"warehouse_id,omitempty"`
	BatchNo          string             `json:"batch_no,omitempty"`
	UserID           string             `json:"-"`
	Lines            []BatchLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PostBatchResponse resultado de contabilizar un lote.
type PostBatchResponse struct {
	BatchID string `json:"batch_id"`
	BatchNo string `json:"batch_no"`
	Status  string `json:"status"`
}

// BatchHeaderResponse resumen de cabecera para listados y detalle.
type BatchHeaderResponse struct {
	ID               string     `json:"id"`
	ProductionPlanID string     `json:"production_plan_id"`
	PlanNo           string     `json:"plan_no,omitempty"`
	WarehouseID      string     `json:"warehouse_id"`
	BatchNo          string     `json:"batch_no"`
	Status           string     `json:"status"`
	CreatedBy        string     `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedBy        string     `json:"updated_by,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	PostedBy         string     `json:"posted_by,omitempty"`
	PostedAt         *time.Time `json:"posted_at,omitempty"`
}

// BatchLineResponse línea del lote con el nombre del producto terminado.
type BatchLineResponse struct {
	ID               string          `json:"id"`
	BatchID          string          `json:"batch_id"`
	RecipeID         string          `json:"recipe_id"`
	FinishedItemID   *string         `json:"finished_item_id,omitempty"`
	FinishedItemName string          `json:"finished_item_name,omitempty"`
	PlannedQty       decimal.Decimal `json:"planned_qty"`
	ActualQty        decimal.Decimal `json:"actual_qty"`
}

// BatchDetailResponse cabecera + líneas.
type BatchDetailResponse struct {
	Header BatchHeaderResponse `json:"header"`
	Lines  []BatchLineResponse `json:"lines"`
}

// ExplosionRowResponse fila de la vista previa de explosión de insumos.
type ExplosionRowResponse struct {
	IngredientItemID string          `json:"ingredient_item_id"`
	IngredientName   string          `json:"ingredient_name"`
	RequiredQty      decimal.Decimal `json:"required_qty"`
	AvailableQty     decimal.Decimal `json:"available_qty"`
	Status           string          `json:"status"` // OK | Shortage
}
