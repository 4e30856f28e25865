package repository

import (
	"context"
	"time"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para cabeceras y líneas de lote.
// Las operaciones Lock* deben ejecutarse dentro de una transacción.
type BatchRepository interface {
	List(ctx context.Context, top int) ([]*entity.BatchHeader, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.BatchHeader, error)
	GetLines(ctx context.Context, batchID string) ([]*entity.BatchLine, error)

	// LockForUpdate bloquea la fila de la cabecera (SELECT ... FOR UPDATE) y la devuelve.
	// Devuelve nil, nil si no existe.
	LockForUpdate(ctx context.Context, id string) (*entity.BatchHeader, error)

	Create(ctx context.Context, header *entity.BatchHeader) error
	// UpdateDraft reescribe plan, bodega, número y auditoría de un lote en borrador.
	UpdateDraft(ctx context.Context, header *entity.BatchHeader) error
	MarkPosted(ctx context.Context, id, user string, at time.Time) error
	Delete(ctx context.Context, id string) error

	// ReplaceLines borra y vuelve a insertar el conjunto completo de líneas.
	ReplaceLines(ctx context.Context, batchID string, lines []*entity.BatchLine) error
	DeleteLines(ctx context.Context, batchID string) error

	// LockNumbering serializa la asignación de consecutivos para el prefijo.
	LockNumbering(ctx context.Context, prefix string) error
	// MaxBatchNoSuffix devuelve el mayor sufijo numérico con el prefijo (0 si no hay).
	MaxBatchNoSuffix(ctx context.Context, prefix string) (int, error)
}
