package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/adjustment"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
)

// AdjustmentHandler maneja las peticiones HTTP de ajustes de inventario.
type AdjustmentHandler struct {
	uc *adjustment.UseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *adjustment.UseCase) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc}
}

// Create godoc
// @Summary      Crear ajuste de inventario (DRAFT)
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "warehouse_id y líneas con delta firmado"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]adjustment.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, adjustment.LineInput{
			CellKey:       l.Cell.ToKey(),
			DeltaQuantity: l.DeltaQuantity,
			UnitCost:      l.UnitCost,
			Reason:        l.Reason,
		})
	}
	adj, err := h.uc.Create(in.WarehouseID, in.Notes, GetUserID(c), lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromAdjustment(adj))
}

// Submit godoc
// @Summary      Enviar ajuste a aprobación
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/submit [post]
func (h *AdjustmentHandler) Submit(c *fiber.Ctx) error {
	adj, err := h.uc.Submit(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// Approve godoc
// @Summary      Aprobar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	adj, err := h.uc.Approve(c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// Reject godoc
// @Summary      Rechazar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	adj, err := h.uc.Reject(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// Cancel godoc
// @Summary      Cancelar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/cancel [post]
func (h *AdjustmentHandler) Cancel(c *fiber.Ctx) error {
	adj, err := h.uc.Cancel(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// Process godoc
// @Summary      Procesar ajuste aprobado (un movimiento por línea)
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/process [post]
func (h *AdjustmentHandler) Process(c *fiber.Ctx) error {
	adj, err := h.uc.Process(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// Get godoc
// @Summary      Obtener ajuste por ID
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) Get(c *fiber.Ctx) error {
	adj, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// List godoc
// @Summary      Listar ajustes
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AdjustmentResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	adjs := h.uc.List()
	out := make([]dto.AdjustmentResponse, 0, len(adjs))
	for _, adj := range adjs {
		out = append(out, dto.FromAdjustment(adj))
	}
	return c.JSON(out)
}
