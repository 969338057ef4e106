package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/reorder"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ReorderHandler maneja las peticiones HTTP de reglas y sugerencias de reposición.
type ReorderHandler struct {
	engine *reorder.Engine
}

// NewReorderHandler construye el handler.
func NewReorderHandler(e *reorder.Engine) *ReorderHandler {
	return &ReorderHandler{engine: e}
}

// SetRule godoc
// @Summary      Crear o reemplazar regla de reposición
// @Tags         reorder
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetReorderRuleRequest  true  "product_id, warehouse_id, umbrales"
// @Success      200   {object}  dto.ReorderRuleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reorder/rules [put]
func (h *ReorderHandler) SetRule(c *fiber.Ctx) error {
	var in dto.SetReorderRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rule, err := h.engine.SetRule(entity.ReorderRule{
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		MinimumStock:    in.MinimumStock,
		ReorderPoint:    in.ReorderPoint,
		ReorderQuantity: in.ReorderQuantity,
		MaximumStock:    in.MaximumStock,
		IsActive:        in.IsActive,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromReorderRule(rule))
}

// GetRule godoc
// @Summary      Obtener regla de reposición del par producto/bodega
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.ReorderRuleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reorder/rules [get]
func (h *ReorderHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.engine.Rule(c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromReorderRule(rule))
}

// ListSuggestions godoc
// @Summary      Listar sugerencias de reposición
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Success      200  {array}  dto.SuggestionResponse
// @Router       /api/reorder/suggestions [get]
func (h *ReorderHandler) ListSuggestions(c *fiber.Ctx) error {
	suggestions := h.engine.Suggestions(entity.SuggestionStatus(c.Query("status")))
	out := make([]dto.SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, dto.FromSuggestion(s))
	}
	return c.JSON(out)
}

// ApproveSuggestion godoc
// @Summary      Aprobar sugerencia pendiente
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sugerencia"
// @Success      200  {object}  dto.SuggestionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reorder/suggestions/{id}/approve [post]
func (h *ReorderHandler) ApproveSuggestion(c *fiber.Ctx) error {
	s, err := h.engine.Approve(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSuggestion(s))
}

// RejectSuggestion godoc
// @Summary      Rechazar sugerencia pendiente (reabre el disparo)
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sugerencia"
// @Success      200  {object}  dto.SuggestionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reorder/suggestions/{id}/reject [post]
func (h *ReorderHandler) RejectSuggestion(c *fiber.Ctx) error {
	s, err := h.engine.Reject(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSuggestion(s))
}

// CancelSuggestion godoc
// @Summary      Cancelar sugerencia abierta
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sugerencia"
// @Success      200  {object}  dto.SuggestionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reorder/suggestions/{id}/cancel [post]
func (h *ReorderHandler) CancelSuggestion(c *fiber.Ctx) error {
	s, err := h.engine.Cancel(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSuggestion(s))
}

// ConvertSuggestion godoc
// @Summary      Convertir sugerencia aprobada a orden de compra
// @Tags         reorder
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sugerencia"
// @Param        body  body  dto.ConvertSuggestionRequest  true  "purchase_order_ref"
// @Success      200   {object}  dto.SuggestionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reorder/suggestions/{id}/convert [post]
func (h *ReorderHandler) ConvertSuggestion(c *fiber.Ctx) error {
	var in dto.ConvertSuggestionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	s, err := h.engine.ConvertToOrder(c.Params("id"), in.PurchaseOrderRef)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSuggestion(s))
}
