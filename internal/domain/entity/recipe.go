package entity

import "github.com/shopspring/decimal"

// RecipeHeader define el rendimiento base de una receta.
// ExpectedOutput nil o cero se trata como 1.
type RecipeHeader struct {
	ID             string
	Name           string
	ExpectedOutput *decimal.Decimal
}

// RecipeIngredient cantidad de un insumo por cada ExpectedOutput unidades de la receta.
type RecipeIngredient struct {
	RecipeID         string
	IngredientItemID string
	Qty              decimal.Decimal
}

// Recipe agrupa cabecera e ingredientes (lista de materiales).
type Recipe struct {
	Header      RecipeHeader
	Ingredients []RecipeIngredient
}

// BaseOutput devuelve el rendimiento efectivo de la receta.
func (h RecipeHeader) BaseOutput() decimal.Decimal {
	if h.ExpectedOutput == nil || h.ExpectedOutput.IsZero() {
		return decimal.NewFromInt(1)
	}
	return *h.ExpectedOutput
}
