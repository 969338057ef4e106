package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/reservation"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ReservationHandler maneja las peticiones HTTP de reservas de stock.
type ReservationHandler struct {
	manager *reservation.Manager
}

// NewReservationHandler construye el handler.
func NewReservationHandler(m *reservation.Manager) *ReservationHandler {
	return &ReservationHandler{manager: m}
}

// Create godoc
// @Summary      Crear reserva de stock
// @Description  Con fefo=true la cantidad se parte entre lotes aprobados por fecha de expiración.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReservationRequest  true  "cell, quantity, ttl_seconds opcional"
// @Success      201   {array}   dto.ReservationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	var expiresAt *time.Time
	if in.TTLSeconds > 0 {
		t := time.Now().Add(time.Duration(in.TTLSeconds) * time.Second)
		expiresAt = &t
	}
	rin := reservation.ReserveInput{
		CellKey:                 in.Cell.ToKey(),
		Quantity:                in.Quantity,
		Type:                    entity.ReservationType(in.Type),
		ReferenceDocumentType:   in.ReferenceDocumentType,
		ReferenceDocumentNumber: in.ReferenceDocumentNumber,
		ExpiresAt:               expiresAt,
		Notes:                   in.Notes,
		CreatedBy:               GetUserID(c),
	}

	if in.FEFO {
		created, err := h.manager.ReserveFEFO(c.Context(), in.Cell.ProductID, in.Cell.WarehouseID, in.Quantity, rin)
		if err != nil {
			return respondError(c, err)
		}
		out := make([]dto.ReservationResponse, 0, len(created))
		for _, r := range created {
			out = append(out, dto.FromReservation(r))
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}

	r, err := h.manager.Reserve(c.Context(), rin)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON([]dto.ReservationResponse{dto.FromReservation(r)})
}

// Fulfill godoc
// @Summary      Despachar (total o parcialmente) una reserva
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la reserva"
// @Param        body  body  dto.FulfillReservationRequest  true  "quantity"
// @Success      200   {object}  dto.ReservationResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/fulfill [post]
func (h *ReservationHandler) Fulfill(c *fiber.Ctx) error {
	var in dto.FulfillReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	r, err := h.manager.Fulfill(c.Context(), c.Params("id"), in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromReservation(r))
}

// Release godoc
// @Summary      Liberar el remanente de una reserva
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      204  "liberada"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	if err := h.manager.Release(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get godoc
// @Summary      Obtener una reserva por ID
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	r, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromReservation(r))
}

// ListOpen godoc
// @Summary      Reservas abiertas (ACTIVE y PARTIALLY_FULFILLED)
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReservationResponse
// @Router       /api/reservations [get]
func (h *ReservationHandler) ListOpen(c *fiber.Ctx) error {
	open := h.manager.OpenReservations()
	out := make([]dto.ReservationResponse, 0, len(open))
	for _, r := range open {
		out = append(out, dto.FromReservation(r))
	}
	return c.JSON(out)
}
