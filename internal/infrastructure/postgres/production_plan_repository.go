package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.ProductionPlanRepository = (*ProductionPlanRepo)(nil)

// ProductionPlanRepo lectura de production_plans.
type ProductionPlanRepo struct {
	q Querier
}

// NewProductionPlanRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionPlanRepository(q Querier) *ProductionPlanRepo {
	return &ProductionPlanRepo{q: q}
}

// GetByID devuelve nil, nil si el plan no existe.
func (r *ProductionPlanRepo) GetByID(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, plan_no, COALESCE(warehouse_id::text, ''), plan_date
		FROM production_plans WHERE id = $1`
	var p entity.ProductionPlan
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.PlanNo, &p.WarehouseID, &p.PlanDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production plan: %w", err)
	}
	return &p, nil
}
