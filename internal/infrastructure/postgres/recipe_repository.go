package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo lectura de recipe_headers y recipe_ingredients.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

// GetRecipes carga cabeceras e ingredientes de las recetas pedidas en dos consultas.
func (r *RecipeRepo) GetRecipes(ctx context.Context, ids []string) (map[string]entity.Recipe, error) {
	out := make(map[string]entity.Recipe, len(ids))
	ids = uuidsOnly(ids)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.q.Query(ctx, `SELECT id, name, expected_output FROM recipe_headers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	for rows.Next() {
		var h entity.RecipeHeader
		var expected *decimal.Decimal
		if err := rows.Scan(&h.ID, &h.Name, &expected); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		h.ExpectedOutput = expected
		out[h.ID] = entity.Recipe{Header: h}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT recipe_id, ingredient_item_id, qty
		FROM recipe_ingredients
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, ingredient_item_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list recipe ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ing entity.RecipeIngredient
		if err := rows.Scan(&ing.RecipeID, &ing.IngredientItemID, &ing.Qty); err != nil {
			return nil, fmt.Errorf("scan recipe ingredient: %w", err)
		}
		rec, ok := out[ing.RecipeID]
		if !ok {
			continue
		}
		rec.Ingredients = append(rec.Ingredients, ing)
		out[ing.RecipeID] = rec
	}
	return out, rows.Err()
}
