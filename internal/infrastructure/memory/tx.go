package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// tx transacción en memoria: bloqueos de fila retenidos hasta el fin y un overlay de escrituras
// que solo se aplica al Store en commit.
type tx struct {
	store *Store
	held  map[string]struct{}
	order []string

	batches map[string]*entity.BatchHeader // nil = borrado
	lines   map[string][]entity.BatchLine  // presencia = reemplazado
	lots    map[string]entity.StockLot
	bins    map[string]entity.StockBin
}

func newTx(s *Store) *tx {
	return &tx{
		store:   s,
		held:    make(map[string]struct{}),
		batches: make(map[string]*entity.BatchHeader),
		lines:   make(map[string][]entity.BatchLine),
		lots:    make(map[string]entity.StockLot),
		bins:    make(map[string]entity.StockBin),
	}
}

// lock toma la llave una sola vez por transacción (reentrante).
func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.held[key] = struct{}{}
	t.order = append(t.order, key)
	return nil
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	for id, h := range t.batches {
		if h == nil {
			delete(s.batches, id)
			continue
		}
		s.batches[id] = *h
	}
	for id, ls := range t.lines {
		if ls == nil {
			delete(s.lines, id)
			continue
		}
		s.lines[id] = ls
	}
	for id, l := range t.lots {
		s.lots[id] = l
	}
	for id, b := range t.bins {
		s.bins[id] = b
	}
	s.mu.Unlock()
	t.releaseAll()
}

func (t *tx) rollback() {
	t.releaseAll()
}

func (t *tx) releaseAll() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.held = make(map[string]struct{})
	t.order = nil
}

func (t *tx) batch(id string) (entity.BatchHeader, bool) {
	if h, ok := t.batches[id]; ok {
		if h == nil {
			return entity.BatchHeader{}, false
		}
		return *h, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	h, ok := t.store.batches[id]
	return h, ok
}

// visibleBatches estado confirmado con el overlay de la transacción aplicado.
func (t *tx) visibleBatches() []entity.BatchHeader {
	t.store.mu.RLock()
	out := make([]entity.BatchHeader, 0, len(t.store.batches)+len(t.batches))
	for id, h := range t.store.batches {
		if _, overridden := t.batches[id]; overridden {
			continue
		}
		out = append(out, h)
	}
	t.store.mu.RUnlock()
	for _, h := range t.batches {
		if h != nil {
			out = append(out, *h)
		}
	}
	return out
}

func (t *tx) batchLines(id string) []entity.BatchLine {
	if ls, ok := t.lines[id]; ok {
		return ls
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return append([]entity.BatchLine(nil), t.store.lines[id]...)
}

func (t *tx) lot(id string) (entity.StockLot, bool) {
	if l, ok := t.lots[id]; ok {
		return l, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	l, ok := t.store.lots[id]
	return l, ok
}

func (t *tx) bin(id string) (entity.StockBin, bool) {
	if b, ok := t.bins[id]; ok {
		return b, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	b, ok := t.store.bins[id]
	return b, ok
}

// lotIDs IDs de lotes del ítem en la bodega, ordenados (orden de bloqueo estable).
func (t *tx) lotIDs(itemID, warehouseID string) []string {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	var ids []string
	for id, l := range t.store.lots {
		if l.ItemID == itemID && l.WarehouseID == warehouseID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (t *tx) binIDs(itemID, warehouseID string) []string {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	var ids []string
	for id, b := range t.store.bins {
		if b.ItemID == itemID && b.WarehouseID == warehouseID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
