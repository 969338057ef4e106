package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/lot"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// LotHandler maneja las peticiones HTTP de lotes y unidades serializadas.
type LotHandler struct {
	tracker *lot.Tracker
}

// NewLotHandler construye el handler.
func NewLotHandler(t *lot.Tracker) *LotHandler {
	return &LotHandler{tracker: t}
}

// Receive godoc
// @Summary      Recibir un lote (postea PURCHASE en la celda del lote)
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveLotRequest  true  "lot_number, product_id, warehouse_id, quantity"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/receive [post]
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	l, err := h.tracker.Receive(c.Context(), lot.ReceiveInput{
		LotNumber:      in.LotNumber,
		ProductID:      in.ProductID,
		WarehouseID:    in.WarehouseID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		ExpiryDate:     in.ExpiryDate,
		DocumentNumber: in.DocumentNumber,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLot(l))
}

// Quarantine godoc
// @Summary      Poner un lote en cuarentena
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/quarantine [post]
func (h *LotHandler) Quarantine(c *fiber.Ctx) error {
	l, err := h.tracker.Quarantine(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromLot(l))
}

// Approve godoc
// @Summary      Aprobar un lote (elegible para reservas y FEFO)
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/approve [post]
func (h *LotHandler) Approve(c *fiber.Ctx) error {
	l, err := h.tracker.Approve(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromLot(l))
}

// Reject godoc
// @Summary      Rechazar un lote en cuarentena
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/reject [post]
func (h *LotHandler) Reject(c *fiber.Ctx) error {
	l, err := h.tracker.Reject(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromLot(l))
}

// Consume godoc
// @Summary      Consumir cantidad de un lote aprobado
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote"
// @Param        body  body  dto.ConsumeLotRequest  true  "quantity"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/consume [post]
func (h *LotHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.tracker.Consume(c.Context(), c.Params("id"), in.Quantity); err != nil {
		return respondError(c, err)
	}
	l, err := h.tracker.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromLot(l))
}

// Get godoc
// @Summary      Obtener un lote por ID
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [get]
func (h *LotHandler) Get(c *fiber.Ctx) error {
	l, err := h.tracker.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromLot(l))
}

// ListByProduct godoc
// @Summary      Lotes de un producto
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Producto"
// @Success      200  {array}  dto.LotResponse
// @Router       /api/lots/products/{id} [get]
func (h *LotHandler) ListByProduct(c *fiber.Ctx) error {
	lots := h.tracker.ByProduct(c.Params("id"))
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.FromLot(l))
	}
	return c.JSON(out)
}

// Allocate godoc
// @Summary      Proponer asignación FEFO para una cantidad
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "product_id, warehouse_id, quantity"
// @Success      200   {array}   dto.AllocationResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/allocate [post]
func (h *LotHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	allocs, err := h.tracker.ProposeAllocation(in.ProductID, in.WarehouseID, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromAllocations(allocs))
}

// RegisterSerial godoc
// @Summary      Registrar una unidad serializada
// @Tags         serials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterSerialRequest  true  "serial, product_id, warehouse_id"
// @Success      201   {object}  dto.SerialResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/serials [post]
func (h *LotHandler) RegisterSerial(c *fiber.Ctx) error {
	var in dto.RegisterSerialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sn, err := h.tracker.RegisterSerial(in.Serial, in.ProductID, in.WarehouseID, in.LotID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSerial(sn))
}

// TransitionSerial godoc
// @Summary      Transicionar el estado de una unidad serializada
// @Tags         serials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del serial"
// @Param        body  body  dto.TransitionSerialRequest  true  "status destino"
// @Success      200   {object}  dto.SerialResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/serials/{id}/transition [post]
func (h *LotHandler) TransitionSerial(c *fiber.Ctx) error {
	var in dto.TransitionSerialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sn, err := h.tracker.TransitionSerial(c.Params("id"), entity.SerialStatus(in.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSerial(sn))
}

// ListSerialsByProduct godoc
// @Summary      Unidades serializadas de un producto
// @Tags         serials
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Producto"
// @Success      200  {array}  dto.SerialResponse
// @Router       /api/serials/products/{id} [get]
func (h *LotHandler) ListSerialsByProduct(c *fiber.Ctx) error {
	serials := h.tracker.SerialsByProduct(c.Params("id"))
	out := make([]dto.SerialResponse, 0, len(serials))
	for _, sn := range serials {
		out = append(out, dto.FromSerial(sn))
	}
	return c.JSON(out)
}
