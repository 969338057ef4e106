package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del journal de movimientos y el stock por celda.
type StockHandler struct {
	journal *journal.Journal
}

// NewStockHandler construye el handler.
func NewStockHandler(j *journal.Journal) *StockHandler {
	return &StockHandler{journal: j}
}

func cellFromQuery(c *fiber.Ctx) entity.CellKey {
	return entity.CellKey{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		LocationID:  c.Query("location_id"),
		LotID:       c.Query("lot_id"),
		SerialID:    c.Query("serial_id"),
	}
}

// AppendMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendMovementRequest  true  "document_number, cell, type, quantity firmada, unit_cost (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *StockHandler) AppendMovement(c *fiber.Ctx) error {
	var in dto.AppendMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	unitCost := decimal.Zero
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	id, err := h.journal.Append(c.Context(), journal.AppendInput{
		DocumentNumber: in.DocumentNumber,
		CellKey:        in.Cell.ToKey(),
		Type:           entity.MovementType(in.Type),
		Quantity:       in.Quantity,
		UnitCost:       unitCost,
		Reason:         in.Reason,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	mov := h.journal.Movement(id)
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(mov))
}

// ReverseMovement godoc
// @Summary      Revertir un movimiento
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del movimiento original"
// @Param        body  body  dto.ReverseMovementRequest  true  "motivo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/{id}/reverse [post]
func (h *StockHandler) ReverseMovement(c *fiber.Ctx) error {
	var in dto.ReverseMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	id, err := h.journal.Reverse(c.Context(), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(h.journal.Movement(id)))
}

// GetMovement godoc
// @Summary      Obtener un movimiento por ID
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	mov := h.journal.Movement(c.Params("id"))
	if mov == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "movimiento no encontrado"})
	}
	return c.JSON(dto.FromMovement(mov))
}

// ListMovements godoc
// @Summary      Historial de movimientos de una celda
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        lot_id        query  string  false  "Lote"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	key := cellFromQuery(c)
	if key.ProductID == "" || key.WarehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id requeridos"})
	}
	movs := h.journal.Movements(key)
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(out)
}

// GetCell godoc
// @Summary      Estado actual de una celda de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.StockCellResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/cell [get]
func (h *StockHandler) GetCell(c *fiber.Ctx) error {
	cell := h.journal.Cell(cellFromQuery(c))
	if cell == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "celda sin movimientos"})
	}
	return c.JSON(dto.FromCell(cell))
}

// GetAvailable godoc
// @Summary      Disponible de una celda (onHand - reserved)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.AvailableResponse
// @Router       /api/stock/available [get]
func (h *StockHandler) GetAvailable(c *fiber.Ctx) error {
	key := cellFromQuery(c)
	av := h.journal.GetAvailable(c.Context(), key)
	return c.JSON(dto.AvailableResponse{Cell: dto.FromKey(key), Available: av})
}

// ListByProduct godoc
// @Summary      Celdas de stock de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Producto"
// @Success      200  {array}  dto.StockCellResponse
// @Router       /api/stock/products/{id} [get]
func (h *StockHandler) ListByProduct(c *fiber.Ctx) error {
	cells := h.journal.CellsByProduct(c.Params("id"))
	out := make([]dto.StockCellResponse, 0, len(cells))
	for _, cell := range cells {
		out = append(out, dto.FromCell(cell))
	}
	return c.JSON(out)
}

// ListByWarehouse godoc
// @Summary      Celdas de stock de una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Bodega"
// @Success      200  {array}  dto.StockCellResponse
// @Router       /api/stock/warehouses/{id} [get]
func (h *StockHandler) ListByWarehouse(c *fiber.Ctx) error {
	cells := h.journal.CellsByWarehouse(c.Params("id"))
	out := make([]dto.StockCellResponse, 0, len(cells))
	for _, cell := range cells {
		out = append(out, dto.FromCell(cell))
	}
	return c.JSON(out)
}
