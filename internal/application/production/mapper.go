package production

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/production"
)

func buildLines(batchID string, in []dto.BatchLineRequest, now time.Time) []*entity.BatchLine {
	lines := make([]*entity.BatchLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, &entity.BatchLine{
			ID:             uuid.New().String(),
			BatchHeaderID:  batchID,
			RecipeID:       l.RecipeID,
			FinishedItemID: l.FinishedItemID,
			PlannedQty:     l.PlannedQty,
			ActualQty:      l.ActualQty,
			CreatedAt:      now,
		})
	}
	return lines
}

// explodeLines carga las recetas referenciadas y calcula los requerimientos.
func explodeLines(ctx context.Context, r TxRepos, lines []*entity.BatchLine) ([]entity.IngredientRequirement, error) {
	seen := make(map[string]struct{}, len(lines))
	recipeIDs := make([]string, 0, len(lines))
	in := make([]production.ExplosionLine, 0, len(lines))
	for _, l := range lines {
		in = append(in, production.ExplosionLine{RecipeID: l.RecipeID, ActualQty: l.ActualQty})
		if _, ok := seen[l.RecipeID]; ok {
			continue
		}
		seen[l.RecipeID] = struct{}{}
		recipeIDs = append(recipeIDs, l.RecipeID)
	}
	recipes, err := r.Recipes.GetRecipes(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}
	return production.Explode(in, recipes)
}

func requirementItemIDs(reqs []entity.IngredientRequirement) []string {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ItemID)
	}
	return ids
}

func toHeaderResponse(h *entity.BatchHeader) dto.BatchHeaderResponse {
	return dto.BatchHeaderResponse{
		ID:               h.ID,
		ProductionPlanID: h.ProductionPlanID,
		PlanNo:           h.PlanNo,
		WarehouseID:      h.WarehouseID,
		BatchNo:          h.BatchNo,
		Status:           h.Status,
		CreatedBy:        h.CreatedBy,
		CreatedAt:        h.CreatedAt,
		UpdatedBy:        h.UpdatedBy,
		UpdatedAt:        h.UpdatedAt,
		PostedBy:         h.PostedBy,
		PostedAt:         h.PostedAt,
	}
}

func toLineResponses(lines []*entity.BatchLine) []dto.BatchLineResponse {
	out := make([]dto.BatchLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.BatchLineResponse{
			ID:               l.ID,
			BatchID:          l.BatchHeaderID,
			RecipeID:         l.RecipeID,
			FinishedItemID:   l.FinishedItemID,
			FinishedItemName: l.FinishedItemName,
			PlannedQty:       l.PlannedQty,
			ActualQty:        l.ActualQty,
		})
	}
	return out
}
