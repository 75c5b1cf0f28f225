package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Soporte-api/internal/application/crm"
	"github.com/jhoicas/Soporte-api/internal/application/dto"
	appidentity "github.com/jhoicas/Soporte-api/internal/application/identity"
	"github.com/jhoicas/Soporte-api/internal/domain"
)

// CustomerHandler superficie de lectura de clientes más la cola de merges.
type CustomerHandler struct {
	uc     *crm.CustomerUseCase
	merges *appidentity.MergeService
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *crm.CustomerUseCase, merges *appidentity.MergeService) *CustomerHandler {
	return &CustomerHandler{uc: uc, merges: merges}
}

// List GET /api/customers?limit=20&offset=0
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	page.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	page.Offset, _ = strconv.Atoi(c.Query("offset", "0"))
	list, err := h.uc.ListCustomers(page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// GetByID GET /api/customers/:id
func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	customer, err := h.uc.GetCustomer(id)
	if err != nil {
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(customer)
}

// MergeCandidates GET /api/customers/:id/merge-candidates (admin|manager)
func (h *CustomerHandler) MergeCandidates(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	candidates, err := h.merges.ListMergeCandidates(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.MergeCandidateResponse, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, dto.MergeCandidateResponse{
			CustomerID: cand.CustomerID,
			MatchedOn:  cand.MatchedOn,
			Name:       cand.Name,
			Email:      cand.Email,
			Phone:      cand.Phone,
		})
	}
	return c.JSON(out)
}

// Merge POST /api/customers/merge (admin|manager)
func (h *CustomerHandler) Merge(c *fiber.Ctx) error {
	var in dto.MergeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.merges.MergeCustomers(c.Context(), in.PrimaryCustomerID, in.MergeCustomerIDs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "primaryCustomerId y mergeCustomerIds deben ser ids válidos y distintos"})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "algún cliente del merge no existe"})
		}
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "un merge concurrente modificó los clientes; recargue los candidatos y reintente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.MergeResponse{MergedCount: result.MergedCount})
}
