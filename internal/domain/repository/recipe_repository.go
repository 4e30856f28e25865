package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// RecipeRepository puerto de lectura de la lista de materiales.
type RecipeRepository interface {
	// GetRecipes devuelve las recetas (cabecera + ingredientes) indexadas por ID.
	// Las recetas inexistentes simplemente no aparecen en el mapa.
	GetRecipes(ctx context.Context, ids []string) (map[string]entity.Recipe, error)
}
