// Package memory implementa el almacenamiento en memoria del módulo de producción,
// usado en tests y en entornos efímeros (STORE_DRIVER=memory).
package memory

import (
	"sort"
	"sync"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// Store estado confirmado. Las transacciones escriben en un overlay propio y lo aplican al confirmar.
type Store struct {
	mu          sync.RWMutex
	plans       map[string]entity.ProductionPlan
	items       map[string]entity.Item
	recipes     map[string]entity.RecipeHeader
	ingredients map[string][]entity.RecipeIngredient
	batches     map[string]entity.BatchHeader
	lines       map[string][]entity.BatchLine
	lots        map[string]entity.StockLot
	bins        map[string]entity.StockBin

	locks *rowLocks
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		plans:       make(map[string]entity.ProductionPlan),
		items:       make(map[string]entity.Item),
		recipes:     make(map[string]entity.RecipeHeader),
		ingredients: make(map[string][]entity.RecipeIngredient),
		batches:     make(map[string]entity.BatchHeader),
		lines:       make(map[string][]entity.BatchLine),
		lots:        make(map[string]entity.StockLot),
		bins:        make(map[string]entity.StockBin),
		locks:       newRowLocks(),
	}
}

// AddPlan registra un plan de producción.
func (s *Store) AddPlan(p entity.ProductionPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = p
}

// AddItem registra un artículo del maestro.
func (s *Store) AddItem(it entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
}

// AddRecipe registra una receta con sus ingredientes.
func (s *Store) AddRecipe(h entity.RecipeHeader, ingredients ...entity.RecipeIngredient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[h.ID] = h
	list := make([]entity.RecipeIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		ing.RecipeID = h.ID
		list = append(list, ing)
	}
	s.ingredients[h.ID] = list
}

// AddLot registra una fila del ledger de lotes.
func (s *Store) AddLot(l entity.StockLot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[l.ID] = l
}

// AddBin registra una fila del ledger de ubicaciones.
func (s *Store) AddBin(b entity.StockBin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bins[b.ID] = b
}

// AddBatch registra una cabecera ya existente (p. ej. datos de arranque).
func (s *Store) AddBatch(h entity.BatchHeader, lines ...entity.BatchLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[h.ID] = h
	s.lines[h.ID] = append([]entity.BatchLine(nil), lines...)
}

// Lot devuelve el estado confirmado de una fila de lotes.
func (s *Store) Lot(id string) (entity.StockLot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[id]
	return l, ok
}

// Bin devuelve el estado confirmado de una fila de ubicaciones.
func (s *Store) Bin(id string) (entity.StockBin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bins[id]
	return b, ok
}

// Batch devuelve la cabecera confirmada.
func (s *Store) Batch(id string) (entity.BatchHeader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	return b, ok
}

// BatchLines devuelve las líneas confirmadas de un lote.
func (s *Store) BatchLines(id string) []entity.BatchLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.BatchLine(nil), s.lines[id]...)
}

// Lots devuelve todas las filas confirmadas del ledger de lotes ordenadas por ID.
func (s *Store) Lots() []entity.StockLot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.StockLot, 0, len(s.lots))
	for _, l := range s.lots {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bins devuelve todas las filas confirmadas del ledger de ubicaciones ordenadas por ID.
func (s *Store) Bins() []entity.StockBin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.StockBin, 0, len(s.bins))
	for _, b := range s.bins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
