package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Soporte-api/internal/application/crm"
	"github.com/jhoicas/Soporte-api/internal/application/dto"
	appidentity "github.com/jhoicas/Soporte-api/internal/application/identity"
	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	identitydom "github.com/jhoicas/Soporte-api/internal/domain/identity"
)

// IdentityHandler expone el motor de resolución de identidad. Lo usan los
// jobs de sincronización de proveedores y el punto de captura manual.
type IdentityHandler struct {
	resolver *appidentity.Resolver
}

// NewIdentityHandler construye el handler.
func NewIdentityHandler(resolver *appidentity.Resolver) *IdentityHandler {
	return &IdentityHandler{resolver: resolver}
}

// Resolve godoc
// @Summary      Resolver una observación de identidad contra el cliente canónico
// @Tags         identity
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResolveRequest  true  "observación de un proveedor"
// @Success      200   {object}  dto.ResolutionResponse  "cliente existente"
// @Success      201   {object}  dto.ResolutionResponse  "cliente creado"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.AmbiguousMatchResponse
// @Router       /api/identity/resolve [post]
func (h *IdentityHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	obs := appidentity.Observation{
		Provider:   entity.IdentityProvider(in.Provider),
		ExternalID: in.ExternalID,
		Email:      in.Email,
		Phone:      in.Phone,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Company:    in.Company,
		Metadata:   in.Metadata,
	}
	var addr *identitydom.PostalAddress
	if in.Address != nil {
		addr = &identitydom.PostalAddress{
			Name:       in.Address.Name,
			Line1:      in.Address.Line1,
			Line2:      in.Address.Line2,
			City:       in.Address.City,
			State:      in.Address.State,
			PostalCode: in.Address.PostalCode,
			Country:    in.Address.Country,
		}
	}
	result, err := h.resolver.Resolve(c.Context(), obs, addr)
	if err != nil {
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "proveedor desconocido o sin identificador utilizable"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if result.IsAmbiguous {
		return c.Status(fiber.StatusConflict).JSON(dto.AmbiguousMatchResponse{
			Code:         "AMBIGUOUS_MATCH",
			Message:      "la observación coincide con varios clientes; requiere revisión manual",
			CandidateIDs: result.AmbiguousCustomerIDs,
		})
	}
	out := dto.ResolutionResponse{
		Customer:  crm.ToCustomerResponse(result.Customer),
		MatchedBy: string(result.MatchedBy),
		IsNew:     result.IsNew,
	}
	status := fiber.StatusOK
	if result.IsNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(out)
}
