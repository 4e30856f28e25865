package http

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/production"
	"github.com/jhoicas/produccion-api/internal/domain"
)

// BatchProductionHandler maneja las peticiones HTTP de lotes de producción (protegido).
type BatchProductionHandler struct {
	uc       *production.BatchProductionUseCase
	validate *validator.Validate
}

// NewBatchProductionHandler construye el handler.
func NewBatchProductionHandler(uc *production.BatchProductionUseCase) *BatchProductionHandler {
	return &BatchProductionHandler{uc: uc, validate: validator.New()}
}

// List godoc
// @Summary      Listar lotes de producción
// @Tags         batch-production
// @Security     Bearer
// @Produce      json
// @Param        top  query  int  false  "Cantidad máxima (por defecto 200, máximo 1000)"
// @Success      200  {array}   dto.BatchHeaderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/batch-production/list [get]
func (h *BatchProductionHandler) List(c *fiber.Ctx) error {
	top := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "top debe ser numérico"})
		}
		top = n
	}
	list, err := h.uc.List(c.Context(), top)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// GetByID godoc
// @Summary      Obtener lote con sus líneas
// @Tags         batch-production
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del lote"
// @Success      200  {object}  dto.BatchDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batch-production/{id} [get]
func (h *BatchProductionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Post godoc
// @Summary      Guardar y contabilizar lote
// @Description  Crea o actualiza el borrador, explota recetas y descuenta ambos ledgers en una transacción.
// @Tags         batch-production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.PostBatchRequest  true  "production_plan_id, lines (recipe_id, actual_qty); id opcional"
// @Success      200   {object}  dto.PostBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/batch-production/post [post]
func (h *BatchProductionHandler) Post(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.PostBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	in.UserID = userID

	out, err := h.uc.PostAndSave(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar lote en borrador
// @Tags         batch-production
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del lote"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batch-production/{id} [delete]
func (h *BatchProductionHandler) Delete(c *fiber.Ctx) error {
	id, err := h.uc.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"id": id})
}

// ExplosionPreview godoc
// @Summary      Vista previa de explosión de insumos
// @Tags         batch-production
// @Security     Bearer
// @Produce      json
// @Param        recipe_id     query  string  true  "Receta"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Param        output_qty    query  number  true  "Cantidad a producir"
// @Success      200  {array}   dto.ExplosionRowResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batch-production/explosion-preview [get]
func (h *BatchProductionHandler) ExplosionPreview(c *fiber.Ctx) error {
	qty, err := decimal.NewFromString(c.Query("output_qty"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "output_qty debe ser numérico"})
	}
	rows, err := h.uc.ExplosionPreview(c.Context(), c.Query("recipe_id"), c.Query("warehouse_id"), qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var shortage *domain.StockShortageError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyPosted):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_POSTED", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrNoIngredientsFound):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_INGREDIENTS", Message: err.Error()})
	case errors.As(err, &shortage), errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrLotMutationFailed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOT_MUTATION_FAILED", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Namespace() + ": " + fe.Tag()
	}
	return "datos inválidos"
}
