package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/count"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
)

// CountHandler maneja las peticiones HTTP de conteos físicos.
type CountHandler struct {
	reconciler *count.Reconciler
}

// NewCountHandler construye el handler.
func NewCountHandler(r *count.Reconciler) *CountHandler {
	return &CountHandler{reconciler: r}
}

// Start godoc
// @Summary      Iniciar conteo físico (congela el snapshot del sistema)
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartCountRequest  true  "warehouse_id, scope opcional"
// @Success      201   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/counts [post]
func (h *CountHandler) Start(c *fiber.Ctx) error {
	var in dto.StartCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sc, err := h.reconciler.StartCount(in.WarehouseID, in.Scope, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCount(sc))
}

// RecordLine godoc
// @Summary      Registrar cantidad contada de una celda
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del conteo"
// @Param        body  body  dto.RecordCountRequest  true  "cell, counted_quantity"
// @Success      200   {object}  dto.CountResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/lines [post]
func (h *CountHandler) RecordLine(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sc, err := h.reconciler.RecordCount(c.Params("id"), in.Cell.ToKey(), in.CountedQuantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// Complete godoc
// @Summary      Completar conteo (todas las líneas contadas)
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/complete [post]
func (h *CountHandler) Complete(c *fiber.Ctx) error {
	sc, err := h.reconciler.Complete(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// Approve godoc
// @Summary      Aprobar varianzas del conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/approve [post]
func (h *CountHandler) Approve(c *fiber.Ctx) error {
	sc, err := h.reconciler.Approve(c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// Reject godoc
// @Summary      Rechazar el conteo completado
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/reject [post]
func (h *CountHandler) Reject(c *fiber.Ctx) error {
	sc, err := h.reconciler.Reject(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// Cancel godoc
// @Summary      Cancelar el conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/cancel [post]
func (h *CountHandler) Cancel(c *fiber.Ctx) error {
	sc, err := h.reconciler.Cancel(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// Process godoc
// @Summary      Procesar conteo aprobado (postea movimientos de corrección)
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/process [post]
func (h *CountHandler) Process(c *fiber.Ctx) error {
	sc, err := h.reconciler.Process(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// Get godoc
// @Summary      Obtener conteo por ID
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) Get(c *fiber.Ctx) error {
	sc, err := h.reconciler.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCount(sc))
}

// List godoc
// @Summary      Listar conteos
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CountResponse
// @Router       /api/counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	counts := h.reconciler.List()
	out := make([]dto.CountResponse, 0, len(counts))
	for _, sc := range counts {
		out = append(out, dto.FromCount(sc))
	}
	return c.JSON(out)
}
