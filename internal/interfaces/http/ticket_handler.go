package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Soporte-api/internal/application/crm"
	"github.com/jhoicas/Soporte-api/internal/application/dto"
	"github.com/jhoicas/Soporte-api/internal/domain"
)

// TicketHandler maneja las peticiones HTTP de tickets de soporte.
type TicketHandler struct {
	uc *crm.TicketUseCase
}

// NewTicketHandler construye el handler.
func NewTicketHandler(uc *crm.TicketUseCase) *TicketHandler {
	return &TicketHandler{uc: uc}
}

// Create POST /api/tickets
func (h *TicketHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTicketRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ticket, err := h.uc.CreateTicket(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "subject y al menos un dato de contacto son requeridos"})
		}
		if errors.Is(err, domain.ErrAmbiguousMatch) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "AMBIGUOUS_MATCH", Message: "el solicitante coincide con varios clientes; requiere revisión manual"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// List GET /api/tickets?customer_id=&limit=20&offset=0
func (h *TicketHandler) List(c *fiber.Ctx) error {
	customerID, _ := strconv.ParseInt(c.Query("customer_id", "0"), 10, 64)
	var page dto.PageRequest
	page.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	page.Offset, _ = strconv.Atoi(c.Query("offset", "0"))
	list, err := h.uc.ListTickets(customerID, page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// GetByID GET /api/tickets/:id
func (h *TicketHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	ticket, err := h.uc.GetTicket(id)
	if err != nil {
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ticket no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(ticket)
}

// AddComment POST /api/tickets/:id/comments
func (h *TicketHandler) AddComment(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in dto.CreateCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	comment, err := h.uc.AddComment(id, GetUserID(c), in)
	if err != nil {
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "body es requerido y direction debe ser inbound u outbound"})
		}
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ticket no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateStatus PATCH /api/tickets/:id/status
func (h *TicketHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ticket, err := h.uc.UpdateStatus(id, in.Status)
	if err != nil {
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status debe ser open, pending o closed"})
		}
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ticket no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(ticket)
}
