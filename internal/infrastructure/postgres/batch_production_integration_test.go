//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/production"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/produccion-api/pkg/config"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

type fixture struct {
	pool        *pgxpool.Pool
	uc          *production.BatchProductionUseCase
	planID      string
	warehouseID string
	recipeID    string
	itemID      string
}

func setup(t *testing.T, lotQtys ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("produccion"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn))
	require.NoError(t, postgres.Migrate(dsn), "sin cambios pendientes no es error")

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	f := &fixture{
		pool:        pool,
		planID:      uuid.NewString(),
		warehouseID: uuid.NewString(),
		recipeID:    uuid.NewString(),
		itemID:      uuid.NewString(),
	}
	exec := func(sql string, args ...any) {
		_, err := pool.Exec(ctx, sql, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO items (id, name) VALUES ($1, 'Harina')`, f.itemID)
	exec(`INSERT INTO production_plans (id, plan_no, warehouse_id) VALUES ($1, 'PP-01', $2)`, f.planID, f.warehouseID)
	exec(`INSERT INTO recipe_headers (id, name, expected_output) VALUES ($1, 'Pan', 10)`, f.recipeID)
	exec(`INSERT INTO recipe_ingredients (recipe_id, ingredient_item_id, qty) VALUES ($1, $2, 2)`, f.recipeID, f.itemID)
	for i, q := range lotQtys {
		// IDs con prefijo ordenable para que el desempate por id sea predecible.
		lotID := fmt.Sprintf("00000000-0000-0000-0000-%012d", i+1)
		binID := fmt.Sprintf("00000000-0000-0000-0001-%012d", i+1)
		exec(`INSERT INTO stock_lots (id, item_id, warehouse_id, qty) VALUES ($1, $2, $3, $4)`, lotID, f.itemID, f.warehouseID, q)
		exec(`INSERT INTO stock_bins (id, item_id, warehouse_id, bin_id, on_hand, available) VALUES ($1, $2, $3, 'A1', $4, $4)`, binID, f.itemID, f.warehouseID, q)
	}

	f.uc = production.NewBatchProductionUseCase(postgres.NewTxRunner(pool), logger.Nop(), production.NumberingConfig{})
	return f
}

func (f *fixture) request(actualQty string) dto.PostBatchRequest {
	return dto.PostBatchRequest{
		ProductionPlanID: f.planID,
		UserID:           "tester",
		Lines: []dto.BatchLineRequest{{
			RecipeID:   f.recipeID,
			PlannedQty: decimal.RequireFromString(actualQty),
			ActualQty:  decimal.RequireFromString(actualQty),
		}},
	}
}

func (f *fixture) remaining(t *testing.T, table, column string) []string {
	t.Helper()
	rows, err := f.pool.Query(context.Background(), fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, column, table))
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var d decimal.Decimal
		require.NoError(t, rows.Scan(&d))
		out = append(out, d.String())
	}
	require.NoError(t, rows.Err())
	return out
}

func TestIntegration_EscenarioA(t *testing.T) {
	f := setup(t, "1", "1", "3")

	resp, err := f.uc.PostAndSave(context.Background(), f.request("20"))
	require.NoError(t, err)
	assert.Equal(t, "BP-0001", resp.BatchNo)

	assert.Equal(t, []string{"0", "0", "1"}, f.remaining(t, "stock_lots", "qty"))
	assert.Equal(t, []string{"0", "0", "1"}, f.remaining(t, "stock_bins", "available"))
	assert.Equal(t, []string{"0", "0", "1"}, f.remaining(t, "stock_bins", "on_hand"))

	detail, err := f.uc.GetByID(context.Background(), resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, "Posted", detail.Header.Status)
	assert.Equal(t, "PP-01", detail.Header.PlanNo)
	assert.Equal(t, "tester", detail.Header.PostedBy)
	assert.Equal(t, "tester", detail.Header.UpdatedBy)
	assert.NotNil(t, detail.Header.UpdatedAt)
	assert.Len(t, detail.Lines, 1)

	again := f.request("20")
	again.ID = resp.BatchID
	_, err = f.uc.PostAndSave(context.Background(), again)
	assert.True(t, errors.Is(err, domain.ErrAlreadyPosted))

	_, err = f.uc.Delete(context.Background(), resp.BatchID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, []string{"0", "0", "1"}, f.remaining(t, "stock_lots", "qty"))
	assert.Equal(t, []string{"0", "0", "1"}, f.remaining(t, "stock_bins", "available"))
}

func TestIntegration_EscenarioB_SinEfectos(t *testing.T) {
	f := setup(t, "1", "1", "1")

	_, err := f.uc.PostAndSave(context.Background(), f.request("20"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	assert.Equal(t, []string{"1", "1", "1"}, f.remaining(t, "stock_lots", "qty"))
	assert.Equal(t, []string{"1", "1", "1"}, f.remaining(t, "stock_bins", "available"))

	list, err := f.uc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIntegration_ConcurrenciaNumeracionYStock(t *testing.T) {
	f := setup(t, "1", "2")

	// Cada contabilización consume 1; hay 3 en total.
	const n = 8
	var ok atomic.Int32
	numbers := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			resp, err := f.uc.PostAndSave(context.Background(), f.request("5"))
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil
			}
			if err != nil {
				return err
			}
			ok.Add(1)
			numbers[i] = resp.BatchNo
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(3), ok.Load())
	assert.Equal(t, []string{"0", "0"}, f.remaining(t, "stock_lots", "qty"))
	assert.Equal(t, []string{"0", "0"}, f.remaining(t, "stock_bins", "available"))

	seen := map[string]bool{}
	for _, no := range numbers {
		if no == "" {
			continue
		}
		assert.False(t, seen[no], "número duplicado %s", no)
		seen[no] = true
	}
	assert.Len(t, seen, 3)
}

func TestIntegration_DeleteBorrador(t *testing.T) {
	f := setup(t, "100")
	ctx := context.Background()

	draftID := uuid.NewString()
	_, err := f.pool.Exec(ctx, `
		INSERT INTO batch_productions (id, production_plan_id, warehouse_id, batch_no, status)
		VALUES ($1, $2, $3, 'BP-0007', 'Draft')`, draftID, f.planID, f.warehouseID)
	require.NoError(t, err)

	id, err := f.uc.Delete(ctx, draftID)
	require.NoError(t, err)
	assert.Equal(t, draftID, id)
	assert.Equal(t, []string{"100"}, f.remaining(t, "stock_lots", "qty"))
	assert.Equal(t, []string{"100"}, f.remaining(t, "stock_bins", "available"))

	_, err = f.uc.GetByID(ctx, draftID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.uc.GetByID(ctx, "no-es-uuid")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIntegration_ExplosionPreview(t *testing.T) {
	f := setup(t, "1", "2")

	rows, err := f.uc.ExplosionPreview(context.Background(), f.recipeID, f.warehouseID, decimal.NewFromInt(20))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Shortage", rows[0].Status)
	assert.Equal(t, "Harina", rows[0].IngredientName)
	assert.True(t, decimal.NewFromInt(4).Equal(rows[0].RequiredQty))
	assert.True(t, decimal.NewFromInt(3).Equal(rows[0].AvailableQty))
}
