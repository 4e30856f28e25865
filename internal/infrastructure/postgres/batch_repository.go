package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/production"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo persistencia de batch_productions y batch_production_lines (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchHeaderColumns = `
	b.id, b.production_plan_id, COALESCE(b.warehouse_id::text, ''), b.batch_no, b.status,
	COALESCE(b.created_by, ''), b.created_at, COALESCE(b.updated_by, ''), b.updated_at,
	COALESCE(b.posted_by, ''), b.posted_at, COALESCE(p.plan_no, '')`

func scanBatchHeader(row pgx.Row) (*entity.BatchHeader, error) {
	var h entity.BatchHeader
	err := row.Scan(
		&h.ID, &h.ProductionPlanID, &h.WarehouseID, &h.BatchNo, &h.Status,
		&h.CreatedBy, &h.CreatedAt, &h.UpdatedBy, &h.UpdatedAt,
		&h.PostedBy, &h.PostedAt, &h.PlanNo,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// List devuelve las cabeceras más recientes primero.
func (r *BatchRepo) List(ctx context.Context, top int) ([]*entity.BatchHeader, error) {
	query := `SELECT ` + batchHeaderColumns + `
		FROM batch_productions b
		LEFT JOIN production_plans p ON p.id = b.production_plan_id
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, top)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var list []*entity.BatchHeader
	for rows.Next() {
		h, err := scanBatchHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// GetByID devuelve nil, nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.BatchHeader, error) {
	return r.getHeader(ctx, id, "")
}

// LockForUpdate bloquea la fila de la cabecera hasta el fin de la transacción.
func (r *BatchRepo) LockForUpdate(ctx context.Context, id string) (*entity.BatchHeader, error) {
	return r.getHeader(ctx, id, " FOR UPDATE OF b")
}

func (r *BatchRepo) getHeader(ctx context.Context, id, lockClause string) (*entity.BatchHeader, error) {
	if !validUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + batchHeaderColumns + `
		FROM batch_productions b
		LEFT JOIN production_plans p ON p.id = b.production_plan_id
		WHERE b.id = $1` + lockClause
	h, err := scanBatchHeader(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return h, nil
}

// GetLines devuelve las líneas del lote con el nombre del producto terminado.
func (r *BatchRepo) GetLines(ctx context.Context, batchID string) ([]*entity.BatchLine, error) {
	if !validUUID(batchID) {
		return nil, nil
	}
	query := `
		SELECT l.id, l.batch_production_id, l.recipe_id, l.finished_item_id::text,
		       l.planned_qty, l.actual_qty, l.created_at, COALESCE(i.name, '')
		FROM batch_production_lines l
		LEFT JOIN items i ON i.id = l.finished_item_id
		WHERE l.batch_production_id = $1
		ORDER BY l.created_at, l.id`
	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.BatchLine
	for rows.Next() {
		var l entity.BatchLine
		if err := rows.Scan(
			&l.ID, &l.BatchHeaderID, &l.RecipeID, &l.FinishedItemID,
			&l.PlannedQty, &l.ActualQty, &l.CreatedAt, &l.FinishedItemName,
		); err != nil {
			return nil, fmt.Errorf("scan batch line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// Create inserta la cabecera en borrador.
func (r *BatchRepo) Create(ctx context.Context, h *entity.BatchHeader) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	query := `
		INSERT INTO batch_productions (id, production_plan_id, warehouse_id, batch_no, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		h.ID, h.ProductionPlanID, h.WarehouseID, h.BatchNo, h.Status, nullIfEmpty(h.CreatedBy), h.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert batch: %w: batch_no %s ya existe", domain.ErrConflict, h.BatchNo)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// UpdateDraft reescribe plan, bodega, número, estado y auditoría.
func (r *BatchRepo) UpdateDraft(ctx context.Context, h *entity.BatchHeader) error {
	query := `
		UPDATE batch_productions
		SET production_plan_id = $2,
		    warehouse_id       = $3,
		    batch_no           = $4,
		    status             = $5,
		    updated_by         = $6,
		    updated_at         = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		h.ID, h.ProductionPlanID, h.WarehouseID, h.BatchNo, h.Status, nullIfEmpty(h.UpdatedBy), h.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update batch: %w: batch_no %s ya existe", domain.ErrConflict, h.BatchNo)
		}
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update batch: %w", domain.ErrNotFound)
	}
	return nil
}

// MarkPosted deja el lote en estado terminal y registra la auditoría de actualización.
func (r *BatchRepo) MarkPosted(ctx context.Context, id, user string, at time.Time) error {
	query := `
		UPDATE batch_productions
		SET status = $2, posted_by = $3, posted_at = $4,
		    updated_by = $3, updated_at = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, entity.BatchStatusPosted, nullIfEmpty(user), at)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post batch: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete borra la cabecera; las líneas deben borrarse antes.
func (r *BatchRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM batch_productions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// ReplaceLines borra las líneas actuales e inserta el conjunto nuevo.
func (r *BatchRepo) ReplaceLines(ctx context.Context, batchID string, lines []*entity.BatchLine) error {
	if err := r.DeleteLines(ctx, batchID); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO batch_production_lines (id, batch_production_id, recipe_id, finished_item_id, planned_qty, actual_qty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		batch.Queue(query, l.ID, batchID, l.RecipeID, l.FinishedItemID, l.PlannedQty, l.ActualQty, l.CreatedAt)
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range lines {
		if _, err := results.Exec(); err != nil {
			if isBadReference(err) {
				return fmt.Errorf("insert batch line: %w: %v", domain.ErrInvalidInput, err)
			}
			return fmt.Errorf("insert batch line: %w", err)
		}
	}
	return nil
}

// DeleteLines borra todas las líneas del lote.
func (r *BatchRepo) DeleteLines(ctx context.Context, batchID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM batch_production_lines WHERE batch_production_id = $1`, batchID); err != nil {
		return fmt.Errorf("delete batch lines: %w", err)
	}
	return nil
}

// LockNumbering toma un advisory lock de transacción por prefijo; se libera en commit/rollback.
func (r *BatchRepo) LockNumbering(ctx context.Context, prefix string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('batch_no:' || $1::text))`, prefix); err != nil {
		return fmt.Errorf("lock batch numbering: %w", err)
	}
	return nil
}

// MaxBatchNoSuffix busca el mayor sufijo numérico entre los números con el prefijo.
func (r *BatchRepo) MaxBatchNoSuffix(ctx context.Context, prefix string) (int, error) {
	rows, err := r.q.Query(ctx,
		`SELECT batch_no FROM batch_productions WHERE left(batch_no, length($1::text)) = $1::text`, prefix)
	if err != nil {
		return 0, fmt.Errorf("max batch number: %w", err)
	}
	defer rows.Close()

	maxSuffix := 0
	for rows.Next() {
		var no string
		if err := rows.Scan(&no); err != nil {
			return 0, fmt.Errorf("scan batch number: %w", err)
		}
		if n, ok := production.BatchNoSuffix(prefix, no); ok && n > maxSuffix {
			maxSuffix = n
		}
	}
	return maxSuffix, rows.Err()
}
