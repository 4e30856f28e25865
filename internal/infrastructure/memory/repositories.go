package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/production"
)

const (
	tableBatches       = "batch_productions"
	tableLots          = "stock_lots"
	tableBins          = "stock_bins"
	tableNumbering     = "batch_no"
	tableBatchNoUnique = "batch_no_unique"
)

type planRepository struct{ tx *tx }

func (r *planRepository) GetByID(_ context.Context, id string) (*entity.ProductionPlan, error) {
	r.tx.store.mu.RLock()
	defer r.tx.store.mu.RUnlock()
	p, ok := r.tx.store.plans[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type batchRepository struct{ tx *tx }

func (r *batchRepository) withPlanNo(h entity.BatchHeader) *entity.BatchHeader {
	r.tx.store.mu.RLock()
	h.PlanNo = r.tx.store.plans[h.ProductionPlanID].PlanNo
	r.tx.store.mu.RUnlock()
	return &h
}

func (r *batchRepository) List(_ context.Context, top int) ([]*entity.BatchHeader, error) {
	all := r.tx.visibleBatches()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if top > 0 && len(all) > top {
		all = all[:top]
	}
	out := make([]*entity.BatchHeader, 0, len(all))
	for _, h := range all {
		out = append(out, r.withPlanNo(h))
	}
	return out, nil
}

func (r *batchRepository) GetByID(_ context.Context, id string) (*entity.BatchHeader, error) {
	h, ok := r.tx.batch(id)
	if !ok {
		return nil, nil
	}
	return r.withPlanNo(h), nil
}

func (r *batchRepository) GetLines(_ context.Context, batchID string) ([]*entity.BatchLine, error) {
	lines := r.tx.batchLines(batchID)
	r.tx.store.mu.RLock()
	defer r.tx.store.mu.RUnlock()
	out := make([]*entity.BatchLine, 0, len(lines))
	for _, l := range lines {
		if l.FinishedItemID != nil {
			l.FinishedItemName = r.tx.store.items[*l.FinishedItemID].Name
		}
		out = append(out, &l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *batchRepository) LockForUpdate(ctx context.Context, id string) (*entity.BatchHeader, error) {
	if err := r.tx.lock(ctx, lockKey(tableBatches, id)); err != nil {
		return nil, fmt.Errorf("lock batch: %w", err)
	}
	return r.GetByID(ctx, id)
}

// lockBatchNo sustituye al índice único de batch_no: se retiene hasta el commit,
// así dos transacciones con el mismo número no pueden pasar ambas la verificación.
func (r *batchRepository) lockBatchNo(ctx context.Context, batchNo string) error {
	if err := r.tx.lock(ctx, lockKey(tableBatchNoUnique, batchNo)); err != nil {
		return fmt.Errorf("lock batch_no: %w", err)
	}
	return nil
}

func (r *batchRepository) Create(ctx context.Context, header *entity.BatchHeader) error {
	if err := r.lockBatchNo(ctx, header.BatchNo); err != nil {
		return err
	}
	for _, h := range r.tx.visibleBatches() {
		if h.BatchNo == header.BatchNo {
			return fmt.Errorf("insert batch: %w: batch_no %s ya existe", domain.ErrConflict, header.BatchNo)
		}
	}
	h := *header
	h.PlanNo = ""
	r.tx.batches[h.ID] = &h
	r.tx.lines[h.ID] = []entity.BatchLine{}
	return nil
}

func (r *batchRepository) UpdateDraft(ctx context.Context, header *entity.BatchHeader) error {
	cur, ok := r.tx.batch(header.ID)
	if !ok {
		return fmt.Errorf("update batch: %w", domain.ErrNotFound)
	}
	if err := r.lockBatchNo(ctx, header.BatchNo); err != nil {
		return err
	}
	for _, h := range r.tx.visibleBatches() {
		if h.ID != header.ID && h.BatchNo == header.BatchNo {
			return fmt.Errorf("update batch: %w: batch_no %s ya existe", domain.ErrConflict, header.BatchNo)
		}
	}
	cur.ProductionPlanID = header.ProductionPlanID
	cur.WarehouseID = header.WarehouseID
	cur.BatchNo = header.BatchNo
	cur.Status = header.Status
	cur.UpdatedBy = header.UpdatedBy
	cur.UpdatedAt = header.UpdatedAt
	r.tx.batches[cur.ID] = &cur
	return nil
}

func (r *batchRepository) MarkPosted(_ context.Context, id, user string, at time.Time) error {
	cur, ok := r.tx.batch(id)
	if !ok {
		return fmt.Errorf("post batch: %w", domain.ErrNotFound)
	}
	cur.Status = entity.BatchStatusPosted
	cur.PostedBy = user
	cur.PostedAt = &at
	cur.UpdatedBy = user
	cur.UpdatedAt = &at
	r.tx.batches[id] = &cur
	return nil
}

func (r *batchRepository) Delete(_ context.Context, id string) error {
	r.tx.batches[id] = nil
	r.tx.lines[id] = nil
	return nil
}

func (r *batchRepository) ReplaceLines(_ context.Context, batchID string, lines []*entity.BatchLine) error {
	out := make([]entity.BatchLine, 0, len(lines))
	for _, l := range lines {
		cp := *l
		cp.BatchHeaderID = batchID
		cp.FinishedItemName = ""
		out = append(out, cp)
	}
	r.tx.lines[batchID] = out
	return nil
}

func (r *batchRepository) DeleteLines(_ context.Context, batchID string) error {
	r.tx.lines[batchID] = []entity.BatchLine{}
	return nil
}

func (r *batchRepository) LockNumbering(ctx context.Context, prefix string) error {
	if err := r.tx.lock(ctx, lockKey(tableNumbering, prefix)); err != nil {
		return fmt.Errorf("lock numbering: %w", err)
	}
	return nil
}

func (r *batchRepository) MaxBatchNoSuffix(_ context.Context, prefix string) (int, error) {
	maxSuffix := 0
	for _, h := range r.tx.visibleBatches() {
		if n, ok := production.BatchNoSuffix(prefix, h.BatchNo); ok && n > maxSuffix {
			maxSuffix = n
		}
	}
	return maxSuffix, nil
}

type recipeRepository struct{ tx *tx }

func (r *recipeRepository) GetRecipes(_ context.Context, ids []string) (map[string]entity.Recipe, error) {
	r.tx.store.mu.RLock()
	defer r.tx.store.mu.RUnlock()
	out := make(map[string]entity.Recipe, len(ids))
	for _, id := range ids {
		h, ok := r.tx.store.recipes[id]
		if !ok {
			continue
		}
		out[id] = entity.Recipe{
			Header:      h,
			Ingredients: append([]entity.RecipeIngredient(nil), r.tx.store.ingredients[id]...),
		}
	}
	return out, nil
}

type itemRepository struct{ tx *tx }

func (r *itemRepository) Names(_ context.Context, ids []string) (map[string]string, error) {
	r.tx.store.mu.RLock()
	defer r.tx.store.mu.RUnlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if it, ok := r.tx.store.items[id]; ok {
			out[id] = it.Name
		}
	}
	return out, nil
}

// lotLedger ledger de lotes: el remanente es Qty.
type lotLedger struct{ tx *tx }

func (r *lotLedger) Ledger() string { return entity.LedgerLot }

func (r *lotLedger) LockAvailable(ctx context.Context, itemID, warehouseID string) ([]entity.LedgerRow, error) {
	var rows []entity.LedgerRow
	for _, id := range r.tx.lotIDs(itemID, warehouseID) {
		if err := r.tx.lock(ctx, lockKey(tableLots, id)); err != nil {
			return nil, fmt.Errorf("lock stock lots: %w", err)
		}
		l, _ := r.tx.lot(id)
		if l.Qty.IsPositive() {
			rows = append(rows, entity.LedgerRow{ID: id, Remaining: l.Qty})
		}
	}
	production.SortLedgerRows(rows)
	return rows, nil
}

func (r *lotLedger) Decrement(ctx context.Context, rowID string, qty decimal.Decimal) (int64, error) {
	if err := r.tx.lock(ctx, lockKey(tableLots, rowID)); err != nil {
		return 0, fmt.Errorf("lock stock lot: %w", err)
	}
	l, ok := r.tx.lot(rowID)
	if !ok || l.Qty.LessThan(qty) {
		return 0, nil
	}
	l.Qty = l.Qty.Sub(qty)
	r.tx.lots[rowID] = l
	return 1, nil
}

func (r *lotLedger) TotalAvailable(_ context.Context, itemIDs []string, warehouseID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(itemIDs))
	for _, itemID := range itemIDs {
		total := decimal.Zero
		for _, id := range r.tx.lotIDs(itemID, warehouseID) {
			l, _ := r.tx.lot(id)
			total = total.Add(l.Qty)
		}
		out[itemID] = total
	}
	return out, nil
}

// binLedger ledger de ubicaciones: el remanente es Available; OnHand baja junto con él.
type binLedger struct{ tx *tx }

func (r *binLedger) Ledger() string { return entity.LedgerBin }

func (r *binLedger) LockAvailable(ctx context.Context, itemID, warehouseID string) ([]entity.LedgerRow, error) {
	var rows []entity.LedgerRow
	for _, id := range r.tx.binIDs(itemID, warehouseID) {
		if err := r.tx.lock(ctx, lockKey(tableBins, id)); err != nil {
			return nil, fmt.Errorf("lock stock bins: %w", err)
		}
		b, _ := r.tx.bin(id)
		if b.Available.IsPositive() {
			rows = append(rows, entity.LedgerRow{ID: id, Remaining: b.Available})
		}
	}
	production.SortLedgerRows(rows)
	return rows, nil
}

func (r *binLedger) Decrement(ctx context.Context, rowID string, qty decimal.Decimal) (int64, error) {
	if err := r.tx.lock(ctx, lockKey(tableBins, rowID)); err != nil {
		return 0, fmt.Errorf("lock stock bin: %w", err)
	}
	b, ok := r.tx.bin(rowID)
	if !ok || b.Available.LessThan(qty) {
		return 0, nil
	}
	b.Available = b.Available.Sub(qty)
	b.OnHand = b.OnHand.Sub(qty)
	r.tx.bins[rowID] = b
	return 1, nil
}

func (r *binLedger) TotalAvailable(_ context.Context, itemIDs []string, warehouseID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(itemIDs))
	for _, itemID := range itemIDs {
		total := decimal.Zero
		for _, id := range r.tx.binIDs(itemID, warehouseID) {
			b, _ := r.tx.bin(id)
			total = total.Add(b.Available)
		}
		out[itemID] = total
	}
	return out, nil
}
