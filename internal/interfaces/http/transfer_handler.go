package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/transfer"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// TransferHandler maneja las peticiones HTTP de transferencias entre bodegas.
type TransferHandler struct {
	orchestrator *transfer.Orchestrator
}

// NewTransferHandler construye el handler.
func NewTransferHandler(o *transfer.Orchestrator) *TransferHandler {
	return &TransferHandler{orchestrator: o}
}

// Create godoc
// @Summary      Crear transferencia (DRAFT)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "bodegas origen/destino y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]transfer.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		unitCost := decimal.Zero
		if l.UnitCost != nil {
			unitCost = *l.UnitCost
		}
		lines = append(lines, transfer.LineInput{
			ProductID:    l.ProductID,
			LotID:        l.LotID,
			UnitCost:     unitCost,
			RequestedQty: l.RequestedQty,
		})
	}
	t, err := h.orchestrator.Create(transfer.CreateInput{
		SourceWarehouseID:      in.SourceWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		Lines:                  lines,
		Type:                   entity.TransferType(in.Type),
		Notes:                  in.Notes,
		ExpectedArrivalDate:    in.ExpectedArrivalDate,
		CreatedBy:              GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromTransfer(t))
}

// Submit godoc
// @Summary      Enviar transferencia a aprobación
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/submit [post]
func (h *TransferHandler) Submit(c *fiber.Ctx) error {
	t, err := h.orchestrator.Submit(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Approve godoc
// @Summary      Aprobar transferencia (reserva en origen)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	t, err := h.orchestrator.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Ship godoc
// @Summary      Despachar transferencia (TRANSFER_OUT en origen)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la transferencia"
// @Param        body  body  dto.ShipTransferRequest  false  "sin líneas despacha todo lo pendiente"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	var in dto.ShipTransferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	lines := make([]transfer.ShipLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, transfer.ShipLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	t, err := h.orchestrator.Ship(c.Context(), c.Params("id"), lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Receive godoc
// @Summary      Registrar recepción en destino (TRANSFER_IN por lo recibido)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la transferencia"
// @Param        body  body  dto.ReceiveTransferRequest  true  "cantidades recibidas y dañadas por producto"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]transfer.ReceiveLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, transfer.ReceiveLine{ProductID: l.ProductID, Received: l.Received, Damaged: l.Damaged})
	}
	t, err := h.orchestrator.Receive(c.Context(), c.Params("id"), lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Complete godoc
// @Summary      Completar transferencia
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la transferencia"
// @Param        body  body  dto.CompleteTransferRequest  false  "close_short cierra líneas incompletas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/complete [post]
func (h *TransferHandler) Complete(c *fiber.Ctx) error {
	var in dto.CompleteTransferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	t, err := h.orchestrator.Complete(c.Params("id"), in.CloseShort)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Cancel godoc
// @Summary      Cancelar transferencia (antes de despachar)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la transferencia"
// @Param        body  body  dto.CancelTransferRequest  false  "motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelTransferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	t, err := h.orchestrator.Cancel(c.Context(), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Get godoc
// @Summary      Obtener transferencia por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	t, err := h.orchestrator.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// ListActive godoc
// @Summary      Transferencias activas (no completadas ni canceladas)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) ListActive(c *fiber.Ctx) error {
	active := h.orchestrator.ActiveTransfers()
	out := make([]dto.TransferResponse, 0, len(active))
	for _, t := range active {
		out = append(out, dto.FromTransfer(t))
	}
	return c.JSON(out)
}
