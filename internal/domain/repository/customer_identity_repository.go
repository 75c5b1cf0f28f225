package repository

import "github.com/jhoicas/Soporte-api/internal/domain/entity"

// CustomerIdentityRepository puerto de persistencia de identidades observadas.
// La BD garantiza UNIQUE (provider, external_id) con external_id no nulo:
// Create devuelve domain.ErrDuplicate ante esa violación, y el Resolver la
// interpreta como "otro proceso acaba de crear esta identidad".
type CustomerIdentityRepository interface {
	Create(identity *entity.CustomerIdentity) error
	// GetByProviderExternalID devuelve (nil, nil) si no existe.
	GetByProviderExternalID(provider entity.IdentityProvider, externalID string) (*entity.CustomerIdentity, error)
	// Update actualiza email/phone/metadata de una identidad existente.
	Update(identity *entity.CustomerIdentity) error
	ListByCustomer(customerID int64) ([]*entity.CustomerIdentity, error)
	// FindCustomerIDsByEmail ids (únicos) de clientes dueños de alguna identidad con ese email.
	FindCustomerIDsByEmail(email string) ([]int64, error)
	// FindCustomerIDsByPhone ids (únicos) de clientes dueños de alguna identidad con ese teléfono.
	FindCustomerIDsByPhone(phone string) ([]int64, error)
	// ExistsEmailOnly reporta si el cliente ya tiene una identidad del
	// proveedor con ese email y sin external_id (la identidad "solo email").
	ExistsEmailOnly(customerID int64, provider entity.IdentityProvider, email string) (bool, error)
	// Repoint mueve todas las identidades de un cliente a otro (merge).
	Repoint(fromCustomerID, toCustomerID int64) error
}
