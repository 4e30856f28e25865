package production

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/production"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

// NumberingConfig prefijo y ancho del consecutivo de lotes.
type NumberingConfig struct {
	Prefix string
	Width  int
}

func (c NumberingConfig) withDefaults() NumberingConfig {
	if c.Prefix == "" {
		c.Prefix = production.DefaultBatchNoPrefix
	}
	if c.Width <= 0 {
		c.Width = production.DefaultBatchNoWidth
	}
	return c
}

// nextBatchNo toma el bloqueo del dominio de numeración y devuelve max(sufijo)+1.
// El bloqueo se mantiene hasta el fin de la transacción, así dos llamadas concurrentes
// nunca leen el mismo máximo.
func nextBatchNo(ctx context.Context, batches repository.BatchRepository, cfg NumberingConfig) (string, error) {
	if err := batches.LockNumbering(ctx, cfg.Prefix); err != nil {
		return "", err
	}
	maxSuffix, err := batches.MaxBatchNoSuffix(ctx, cfg.Prefix)
	if err != nil {
		return "", err
	}
	return production.NextBatchNo(cfg.Prefix, cfg.Width, maxSuffix), nil
}
