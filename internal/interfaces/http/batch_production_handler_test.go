package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/production"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/produccion-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/produccion-api/pkg/jwt"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newBatchApp app completa sobre el store en memoria: plan P1 en W1, receta R1 (rinde 10, 2 de I1).
func newBatchApp(t *testing.T, lotQty string) (*fiber.App, *memory.Store) {
	t.Helper()
	return newBatchAppWith(t, lotQty, nil)
}

// newBatchAppWith permite envolver el TxRunner para simular fallas de persistencia.
func newBatchAppWith(t *testing.T, lotQty string, wrap func(production.TxRunner) production.TxRunner) (*fiber.App, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	base := dec("10")
	s.AddPlan(entity.ProductionPlan{ID: "P1", PlanNo: "PP-01", WarehouseID: "W1"})
	s.AddItem(entity.Item{ID: "I1", Name: "Harina"})
	s.AddRecipe(entity.RecipeHeader{ID: "R1", Name: "Pan", ExpectedOutput: &base},
		entity.RecipeIngredient{IngredientItemID: "I1", Qty: dec("2")})
	s.AddRecipe(entity.RecipeHeader{ID: "R0", Name: "Vacía"})
	s.AddLot(entity.StockLot{ID: "lot-1", ItemID: "I1", WarehouseID: "W1", Qty: dec(lotQty)})
	s.AddBin(entity.StockBin{ID: "bin-1", ItemID: "I1", WarehouseID: "W1", OnHand: dec(lotQty), Available: dec(lotQty)})

	var runner production.TxRunner = memory.NewTxRunner(s)
	if wrap != nil {
		runner = wrap(runner)
	}
	uc := production.NewBatchProductionUseCase(runner, logger.Nop(), production.NumberingConfig{})
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{BatchProductionUC: uc, JWTSecret: testJWTSecret})
	return app, s
}

func call(t *testing.T, app *fiber.App, method, path, body, role string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// staleLedger simula una fila cambiada por otro proceso: el UPDATE no afecta filas.
type staleLedger struct {
	repository.StockLedgerRepository
}

func (staleLedger) Decrement(context.Context, string, decimal.Decimal) (int64, error) {
	return 0, nil
}

type staleBinsRunner struct {
	inner production.TxRunner
}

func (r staleBinsRunner) Run(ctx context.Context, fn func(repos production.TxRepos) error) error {
	return r.inner.Run(ctx, func(repos production.TxRepos) error {
		repos.Bins = staleLedger{repos.Bins}
		return fn(repos)
	})
}

func withStaleBins(inner production.TxRunner) production.TxRunner {
	return staleBinsRunner{inner: inner}
}

const postBody = `{"production_plan_id":"P1","warehouse_id":"IGNORADA","lines":[{"recipe_id":"R1","planned_qty":20,"actual_qty":"20"}]}`

func TestHealth_Publico(t *testing.T) {
	app, _ := newBatchApp(t, "10")
	resp, _ := call(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPost_Contabiliza(t *testing.T) {
	app, s := newBatchApp(t, "10")

	resp, raw := call(t, app, http.MethodPost, "/api/batch-production/post", postBody, pkgjwt.RoleProduccion)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out dto.PostBatchResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "BP-0001", out.BatchNo)
	assert.Equal(t, entity.BatchStatusPosted, out.Status)

	lot, _ := s.Lot("lot-1")
	assert.True(t, dec("6").Equal(lot.Qty))
	h, _ := s.Batch(out.BatchID)
	assert.Equal(t, "W1", h.WarehouseID)
	assert.Equal(t, testUserID, h.PostedBy, "el usuario sale del token")

	resp, raw = call(t, app, http.MethodGet, "/api/batch-production/"+out.BatchID, "", pkgjwt.RoleBodeguero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail dto.BatchDetailResponse
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.Equal(t, "PP-01", detail.Header.PlanNo)
	assert.Len(t, detail.Lines, 1)

	repost := `{"id":"` + out.BatchID + `","production_plan_id":"P1","lines":[{"recipe_id":"R1","actual_qty":1}]}`
	resp, raw = call(t, app, http.MethodPost, "/api/batch-production/post", repost, pkgjwt.RoleAdmin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "ALREADY_POSTED")

	resp, _ = call(t, app, http.MethodDelete, "/api/batch-production/"+out.BatchID, "", pkgjwt.RoleAdmin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPost_MapeoDeErrores(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		role   string
		status int
		code   string
		wrap   func(production.TxRunner) production.TxRunner
	}{
		{"cuerpo inválido", `{`, pkgjwt.RoleAdmin, http.StatusBadRequest, "INVALID_BODY", nil},
		{"sin líneas", `{"production_plan_id":"P1","lines":[]}`, pkgjwt.RoleAdmin, http.StatusBadRequest, "VALIDATION", nil},
		{"línea sin receta", `{"production_plan_id":"P1","lines":[{"actual_qty":1}]}`, pkgjwt.RoleAdmin, http.StatusBadRequest, "VALIDATION", nil},
		{"plan inexistente", `{"production_plan_id":"PX","lines":[{"recipe_id":"R1","actual_qty":1}]}`, pkgjwt.RoleAdmin, http.StatusNotFound, "NOT_FOUND", nil},
		{"sin ingredientes", `{"production_plan_id":"P1","lines":[{"recipe_id":"R0","actual_qty":1}]}`, pkgjwt.RoleAdmin, http.StatusUnprocessableEntity, "NO_INGREDIENTS", nil},
		{"stock insuficiente", `{"production_plan_id":"P1","lines":[{"recipe_id":"R1","actual_qty":100}]}`, pkgjwt.RoleAdmin, http.StatusConflict, "INSUFFICIENT_STOCK", nil},
		{"fila modificada al descontar", postBody, pkgjwt.RoleAdmin, http.StatusConflict, "LOT_MUTATION_FAILED", withStaleBins},
		{"rol sin permiso", postBody, pkgjwt.RoleBodeguero, http.StatusForbidden, "FORBIDDEN", nil},
		{"sin token", postBody, "", http.StatusUnauthorized, "MISSING_TOKEN", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, s := newBatchAppWith(t, "10", tt.wrap)
			resp, raw := call(t, app, http.MethodPost, "/api/batch-production/post", tt.body, tt.role)
			assert.Equal(t, tt.status, resp.StatusCode, string(raw))
			assert.Contains(t, string(raw), tt.code)

			lot, _ := s.Lot("lot-1")
			assert.True(t, dec("10").Equal(lot.Qty), "ningún error descuenta stock")
		})
	}
}

func TestDelete_Borrador(t *testing.T) {
	app, s := newBatchApp(t, "10")
	s.AddBatch(entity.BatchHeader{ID: "D1", ProductionPlanID: "P1", WarehouseID: "W1", BatchNo: "BP-0001", Status: entity.BatchStatusDraft})

	resp, raw := call(t, app, http.MethodDelete, "/api/batch-production/D1", "", pkgjwt.RoleProduccion)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"id":"D1"`)

	resp, _ = call(t, app, http.MethodGet, "/api/batch-production/D1", "", pkgjwt.RoleProduccion)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestList(t *testing.T) {
	app, _ := newBatchApp(t, "100")
	for i := 0; i < 3; i++ {
		resp, _ := call(t, app, http.MethodPost, "/api/batch-production/post", postBody, pkgjwt.RoleAdmin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, raw := call(t, app, http.MethodGet, "/api/batch-production/list?top=2", "", pkgjwt.RoleBodeguero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.BatchHeaderResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 2)

	resp, raw = call(t, app, http.MethodGet, "/api/batch-production/list?top=-5", "", pkgjwt.RoleBodeguero)
	require.Equal(t, http.StatusOK, resp.StatusCode, "top negativo usa el valor por defecto")
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 3)

	resp, _ = call(t, app, http.MethodGet, "/api/batch-production/list?top=abc", "", pkgjwt.RoleBodeguero)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExplosionPreview(t *testing.T) {
	app, _ := newBatchApp(t, "3")

	resp, raw := call(t, app, http.MethodGet, "/api/batch-production/explosion-preview?recipe_id=R1&warehouse_id=W1&output_qty=20", "", pkgjwt.RoleBodeguero)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var rows []dto.ExplosionRowResponse
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, entity.ExplosionStatusShortage, rows[0].Status)
	assert.True(t, dec("4").Equal(rows[0].RequiredQty))
	assert.True(t, dec("3").Equal(rows[0].AvailableQty))

	resp, _ = call(t, app, http.MethodGet, "/api/batch-production/explosion-preview?recipe_id=R1&warehouse_id=W1&output_qty=x", "", pkgjwt.RoleBodeguero)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/batch-production/explosion-preview?recipe_id=RX&warehouse_id=W1&output_qty=1", "", pkgjwt.RoleBodeguero)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
