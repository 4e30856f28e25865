package memory

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/application/production"
)

// TxRunner implementa production.TxRunner sobre el Store en memoria.
type TxRunner struct {
	store *Store
}

// NewTxRunner crea un TxRunner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn; si devuelve error (o hace panic) se descarta el overlay y se liberan los bloqueos.
func (r *TxRunner) Run(ctx context.Context, fn func(repos production.TxRepos) error) error {
	t := newTx(r.store)
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	repos := production.TxRepos{
		Plans:   &planRepository{tx: t},
		Batches: &batchRepository{tx: t},
		Recipes: &recipeRepository{tx: t},
		Items:   &itemRepository{tx: t},
		Lots:    &lotLedger{tx: t},
		Bins:    &binLedger{tx: t},
	}
	if err := fn(repos); err != nil {
		return err
	}
	t.commit()
	committed = true
	return nil
}
