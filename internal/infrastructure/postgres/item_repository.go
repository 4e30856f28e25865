package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo lectura del maestro de artículos.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Names devuelve id -> nombre para los artículos existentes.
func (r *ItemRepo) Names(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	ids = uuidsOnly(ids)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT id, name FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list item names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out[id] = name
	}
	return out, rows.Err()
}
