package production

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Plans   repository.ProductionPlanRepository
	Batches repository.BatchRepository
	Recipes repository.RecipeRepository
	Items   repository.ItemRepository
	Lots    repository.StockLedgerRepository
	Bins    repository.StockLedgerRepository
}

// TxRunner ejecuta fn dentro de una transacción y hace Commit si fn no falla, Rollback en otro caso.
// Todas las operaciones públicas del caso de uso corren en exactamente una transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// PostingGuard bloqueo distribuido de mejor esfuerzo por lote o plan.
// Los bloqueos de la base de datos siguen siendo la garantía real.
type PostingGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
