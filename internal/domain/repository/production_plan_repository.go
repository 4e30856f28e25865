package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// ProductionPlanRepository puerto de lectura de planes de producción.
type ProductionPlanRepository interface {
	// GetByID devuelve nil, nil si el plan no existe.
	GetByID(ctx context.Context, id string) (*entity.ProductionPlan, error)
}
