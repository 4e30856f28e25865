package production

import (
	"sort"
	"strings"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RequiredQtyPlaces precisión de las cantidades requeridas (NUMERIC(18,4)).
const RequiredQtyPlaces = 4

// ExplosionLine entrada mínima de la explosión: receta y cantidad real producida.
type ExplosionLine struct {
	RecipeID  string
	ActualQty decimal.Decimal
}

// Explode convierte líneas de producción en requerimientos de insumos:
// por cada ingrediente, Qty * ActualQty / BaseOutput, sumado entre todas las líneas.
// El resultado se ordena por ItemID para que el descuento siga un orden estable.
// Líneas cuya receta no existe en recipes no aportan nada.
// Cada total se redondea a RequiredQtyPlaces después de sumar, igual que la columna
// NUMERIC(18,4); por eso la escala es lineal sólo hasta esa precisión
// (0.00005 redondea a 0.0001, el doble 0.0001 también).
func Explode(lines []ExplosionLine, recipes map[string]entity.Recipe) ([]entity.IngredientRequirement, error) {
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		recipe, ok := recipes[line.RecipeID]
		if !ok {
			continue
		}
		base := recipe.Header.BaseOutput()
		for _, ing := range recipe.Ingredients {
			contribution := ing.Qty.Mul(line.ActualQty).Div(base)
			totals[ing.IngredientItemID] = totals[ing.IngredientItemID].Add(contribution)
		}
	}
	if len(totals) == 0 {
		return nil, domain.ErrNoIngredientsFound
	}

	out := make([]entity.IngredientRequirement, 0, len(totals))
	for itemID, qty := range totals {
		out = append(out, entity.IngredientRequirement{
			ItemID:      itemID,
			RequiredQty: qty.Round(RequiredQtyPlaces),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// BuildPreview cruza los requerimientos con la disponibilidad por insumo y los nombres del maestro.
// Orden: faltantes primero, luego por nombre (sin distinguir mayúsculas) e ID.
func BuildPreview(reqs []entity.IngredientRequirement, available map[string]decimal.Decimal, names map[string]string) []entity.ExplosionRow {
	rows := make([]entity.ExplosionRow, 0, len(reqs))
	for _, r := range reqs {
		avail := available[r.ItemID]
		status := entity.ExplosionStatusOK
		if avail.LessThan(r.RequiredQty) {
			status = entity.ExplosionStatusShortage
		}
		rows = append(rows, entity.ExplosionRow{
			IngredientItemID: r.ItemID,
			IngredientName:   names[r.ItemID],
			RequiredQty:      r.RequiredQty,
			AvailableQty:     avail,
			Status:           status,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		si := rows[i].Status == entity.ExplosionStatusShortage
		sj := rows[j].Status == entity.ExplosionStatusShortage
		if si != sj {
			return si
		}
		ni, nj := strings.ToLower(rows[i].IngredientName), strings.ToLower(rows[j].IngredientName)
		if ni != nj {
			return ni < nj
		}
		return rows[i].IngredientItemID < rows[j].IngredientItemID
	})
	return rows
}
