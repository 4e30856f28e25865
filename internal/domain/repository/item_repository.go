package repository

import "context"

// ItemRepository lectura del maestro de artículos (solo nombres).
type ItemRepository interface {
	Names(ctx context.Context, ids []string) (map[string]string, error)
}
