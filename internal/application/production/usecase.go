package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/production"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

// BatchProductionUseCase contabiliza lotes de producción: explota recetas, descuenta
// los dos ledgers de stock y deja el lote en Posted, todo en una sola transacción.
type BatchProductionUseCase struct {
	txRunner  TxRunner
	guard     PostingGuard
	log       *logger.Logger
	numbering NumberingConfig
	tracer    trace.Tracer
	now       func() time.Time
}

// Option ajusta el caso de uso (tests).
type Option func(*BatchProductionUseCase)

// WithClock reemplaza el reloj usado para las fechas de auditoría.
func WithClock(now func() time.Time) Option {
	return func(uc *BatchProductionUseCase) { uc.now = now }
}

// WithPostingGuard activa el bloqueo distribuido de mejor esfuerzo.
func WithPostingGuard(g PostingGuard) Option {
	return func(uc *BatchProductionUseCase) { uc.guard = g }
}

// NewBatchProductionUseCase construye el caso de uso.
func NewBatchProductionUseCase(txRunner TxRunner, log *logger.Logger, numbering NumberingConfig, opts ...Option) *BatchProductionUseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &BatchProductionUseCase{
		txRunner:  txRunner,
		log:       log.Named("batch_production"),
		numbering: numbering.withDefaults(),
		tracer:    otel.Tracer("github.com/jhoicas/produccion-api/internal/application/production"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// List devuelve las últimas cabeceras (más recientes primero).
func (uc *BatchProductionUseCase) List(ctx context.Context, top int) ([]*dto.BatchHeaderResponse, error) {
	req := dto.ListRequest{Top: top}
	req.Normalize()

	var out []*dto.BatchHeaderResponse
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		headers, err := r.Batches.List(ctx, req.Top)
		if err != nil {
			return err
		}
		out = make([]*dto.BatchHeaderResponse, 0, len(headers))
		for _, h := range headers {
			resp := toHeaderResponse(h)
			out = append(out, &resp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID devuelve cabecera y líneas del lote.
func (uc *BatchProductionUseCase) GetByID(ctx context.Context, id string) (*dto.BatchDetailResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id requerido", domain.ErrInvalidInput)
	}
	var out *dto.BatchDetailResponse
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		header, err := r.Batches.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if header == nil {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
		}
		lines, err := r.Batches.GetLines(ctx, id)
		if err != nil {
			return err
		}
		out = &dto.BatchDetailResponse{Header: toHeaderResponse(header), Lines: toLineResponses(lines)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PostAndSave crea o actualiza el lote en borrador, recalcula los insumos, descuenta
// ambos ledgers para cada insumo y marca el lote como Posted. Cualquier error revierte todo.
func (uc *BatchProductionUseCase) PostAndSave(ctx context.Context, in dto.PostBatchRequest) (*dto.PostBatchResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "BatchProduction.PostAndSave")
	defer span.End()

	if err := validatePostRequest(in); err != nil {
		return nil, err
	}
	in.ID = strings.TrimSpace(in.ID)
	span.SetAttributes(
		attribute.String("batch.id", in.ID),
		attribute.String("production_plan.id", in.ProductionPlanID),
	)

	release := uc.acquireGuard(ctx, guardKey(in))
	defer release()

	now := uc.now()
	var batchID, batchNo, warehouseID string
	var reqs []entity.IngredientRequirement

	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		// 1) La bodega sale del plan; la enviada por el cliente se ignora.
		plan, err := r.Plans.GetByID(ctx, in.ProductionPlanID)
		if err != nil {
			return err
		}
		if plan == nil || strings.TrimSpace(plan.WarehouseID) == "" {
			return fmt.Errorf("%w: bodega del plan de producción %s", domain.ErrNotFound, in.ProductionPlanID)
		}
		warehouseID = plan.WarehouseID

		// 2) Cabecera nueva o actualización de un borrador bloqueado.
		if in.ID == "" {
			batchNo = strings.TrimSpace(in.BatchNo)
			if batchNo == "" {
				if batchNo, err = nextBatchNo(ctx, r.Batches, uc.numbering); err != nil {
					return err
				}
			}
			header := &entity.BatchHeader{
				ID:               uuid.New().String(),
				ProductionPlanID: plan.ID,
				WarehouseID:      warehouseID,
				BatchNo:          batchNo,
				Status:           entity.BatchStatusDraft,
				CreatedBy:        in.UserID,
				CreatedAt:        now,
			}
			if err := r.Batches.Create(ctx, header); err != nil {
				return err
			}
			batchID = header.ID
		} else {
			header, err := r.Batches.LockForUpdate(ctx, in.ID)
			if err != nil {
				return err
			}
			if header == nil {
				return fmt.Errorf("%w: lote %s", domain.ErrNotFound, in.ID)
			}
			if header.IsPosted() {
				return fmt.Errorf("%w: %s", domain.ErrAlreadyPosted, header.BatchNo)
			}
			if no := strings.TrimSpace(in.BatchNo); no != "" {
				header.BatchNo = no
			}
			header.ProductionPlanID = plan.ID
			header.WarehouseID = warehouseID
			header.Status = entity.BatchStatusDraft
			header.UpdatedBy = in.UserID
			header.UpdatedAt = &now
			if err := r.Batches.UpdateDraft(ctx, header); err != nil {
				return err
			}
			batchID, batchNo = header.ID, header.BatchNo
		}

		if err := r.Batches.ReplaceLines(ctx, batchID, buildLines(batchID, in.Lines, now)); err != nil {
			return err
		}

		// 3-4) Requerimientos a partir de las líneas persistidas.
		lines, err := r.Batches.GetLines(ctx, batchID)
		if err != nil {
			return err
		}
		if reqs, err = explodeLines(ctx, r, lines); err != nil {
			return err
		}

		// 5) Ledger de lotes y luego de ubicaciones, por insumo en orden de ItemID.
		for _, req := range reqs {
			if err := depleteLedger(ctx, r.Lots, req.ItemID, warehouseID, req.RequiredQty); err != nil {
				return err
			}
			if err := depleteLedger(ctx, r.Bins, req.ItemID, warehouseID, req.RequiredQty); err != nil {
				return err
			}
		}
		if err := uc.reportDivergence(ctx, r, reqs, warehouseID, batchID); err != nil {
			return err
		}

		// 6) Estado terminal.
		return r.Batches.MarkPosted(ctx, batchID, in.UserID, now)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.log.Warn().Err(err).
			Str("batch_id", in.ID).
			Str("production_plan_id", in.ProductionPlanID).
			Msg("contabilización de lote rechazada")
		return nil, err
	}

	uc.log.Info().
		Str("batch_id", batchID).
		Str("batch_no", batchNo).
		Str("warehouse_id", warehouseID).
		Int("ingredients", len(reqs)).
		Str("user_id", in.UserID).
		Msg("lote contabilizado")
	return &dto.PostBatchResponse{BatchID: batchID, BatchNo: batchNo, Status: entity.BatchStatusPosted}, nil
}

// Delete elimina un lote en borrador (líneas y cabecera). Un lote Posted es inmutable.
func (uc *BatchProductionUseCase) Delete(ctx context.Context, id string) (string, error) {
	ctx, span := uc.tracer.Start(ctx, "BatchProduction.Delete")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: id requerido", domain.ErrInvalidInput)
	}
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		header, err := r.Batches.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if header == nil {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
		}
		if header.IsPosted() {
			return fmt.Errorf("%w: %w", domain.ErrConflict, domain.ErrAlreadyPosted)
		}
		if err := r.Batches.DeleteLines(ctx, id); err != nil {
			return err
		}
		return r.Batches.Delete(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	uc.log.Info().Str("batch_id", id).Msg("lote eliminado")
	return id, nil
}

// ExplosionPreview calcula los insumos de una receta para outputQty y los cruza con la
// disponibilidad del ledger de ubicaciones en la bodega. No modifica stock.
func (uc *BatchProductionUseCase) ExplosionPreview(ctx context.Context, recipeID, warehouseID string, outputQty decimal.Decimal) ([]dto.ExplosionRowResponse, error) {
	recipeID, warehouseID = strings.TrimSpace(recipeID), strings.TrimSpace(warehouseID)
	if recipeID == "" || warehouseID == "" || !outputQty.IsPositive() {
		return nil, fmt.Errorf("%w: recipe_id, warehouse_id y output_qty > 0 son requeridos", domain.ErrInvalidInput)
	}

	out := []dto.ExplosionRowResponse{}
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		recipes, err := r.Recipes.GetRecipes(ctx, []string{recipeID})
		if err != nil {
			return err
		}
		if _, ok := recipes[recipeID]; !ok {
			return fmt.Errorf("%w: receta %s", domain.ErrNotFound, recipeID)
		}
		reqs, err := production.Explode([]production.ExplosionLine{{RecipeID: recipeID, ActualQty: outputQty}}, recipes)
		if errors.Is(err, domain.ErrNoIngredientsFound) {
			return nil
		}
		if err != nil {
			return err
		}

		itemIDs := requirementItemIDs(reqs)
		available, err := r.Bins.TotalAvailable(ctx, itemIDs, warehouseID)
		if err != nil {
			return err
		}
		names, err := r.Items.Names(ctx, itemIDs)
		if err != nil {
			return err
		}
		for _, row := range production.BuildPreview(reqs, available, names) {
			out = append(out, dto.ExplosionRowResponse{
				IngredientItemID: row.IngredientItemID,
				IngredientName:   row.IngredientName,
				RequiredQty:      row.RequiredQty,
				AvailableQty:     row.AvailableQty,
				Status:           row.Status,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reportDivergence compara los totales de ambos ledgers tras el descuento y emite una alerta
// si no coinciden. No corrige nada: no existe política de conciliación entre ledgers.
func (uc *BatchProductionUseCase) reportDivergence(ctx context.Context, r TxRepos, reqs []entity.IngredientRequirement, warehouseID, batchID string) error {
	itemIDs := requirementItemIDs(reqs)
	lots, err := r.Lots.TotalAvailable(ctx, itemIDs, warehouseID)
	if err != nil {
		return err
	}
	bins, err := r.Bins.TotalAvailable(ctx, itemIDs, warehouseID)
	if err != nil {
		return err
	}
	for _, itemID := range itemIDs {
		if lots[itemID].Equal(bins[itemID]) {
			continue
		}
		uc.log.Warn().
			Str("alert", "ledger_divergence").
			Str("batch_id", batchID).
			Str("item_id", itemID).
			Str("warehouse_id", warehouseID).
			Str("lot_total", lots[itemID].String()).
			Str("bin_total", bins[itemID].String()).
			Msg("los ledgers de lotes y ubicaciones no coinciden")
	}
	return nil
}

func (uc *BatchProductionUseCase) acquireGuard(ctx context.Context, key string) func() {
	if uc.guard == nil {
		return func() {}
	}
	release, err := uc.guard.Acquire(ctx, key)
	if err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("bloqueo distribuido no disponible; se continúa con bloqueos de la base de datos")
		return func() {}
	}
	return release
}

func guardKey(in dto.PostBatchRequest) string {
	if in.ID != "" {
		return "batch-production:batch:" + in.ID
	}
	return "batch-production:plan:" + in.ProductionPlanID
}

func validatePostRequest(in dto.PostBatchRequest) error {
	if strings.TrimSpace(in.ProductionPlanID) == "" {
		return fmt.Errorf("%w: production_plan_id requerido", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: lines requerido", domain.ErrInvalidInput)
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.RecipeID) == "" {
			return fmt.Errorf("%w: lines[%d].recipe_id requerido", domain.ErrInvalidInput, i)
		}
		if l.ActualQty.IsNegative() || l.PlannedQty.IsNegative() {
			return fmt.Errorf("%w: lines[%d] cantidades negativas", domain.ErrInvalidInput, i)
		}
	}
	return nil
}
