package entity

import (
	"strings"
	"time"
)

// IdentityProvider origen de una identidad observada.
type IdentityProvider string

const (
	ProviderStorefront   IdentityProvider = "storefront"
	ProviderAccounting   IdentityProvider = "accounting"
	ProviderMarketplace  IdentityProvider = "marketplace"
	ProviderFulfillment  IdentityProvider = "fulfillment"
	ProviderMarketing    IdentityProvider = "marketing"
	ProviderManual       IdentityProvider = "manual"
	ProviderSelfReported IdentityProvider = "self_reported"
)

// Valid reporta si el proveedor es uno de los conocidos.
func (p IdentityProvider) Valid() bool {
	switch p {
	case ProviderStorefront, ProviderAccounting, ProviderMarketplace,
		ProviderFulfillment, ProviderMarketing, ProviderManual, ProviderSelfReported:
		return true
	}
	return false
}

// AddressHashPrefix prefijo del external_id sintético cuando la única señal
// disponible es la dirección postal (el proveedor no expone email ni teléfono).
const AddressHashPrefix = "address_hash:"

// Claves de metadata usadas por el motor de identidad.
const (
	MetaIdentityType       = "identity_type"
	MetaOriginalExternalID = "original_external_id"
	MetaRawAddress         = "raw_address"
)

// CustomerIdentity es una identidad observada de un proveedor, ligada a
// exactamente un Customer. (provider, external_id) es único cuando external_id
// no es nulo: esa es la llave de idempotencia de la ingesta. Las identidades
// nunca se borran; en un merge solo se re-apuntan a otro customer_id.
type CustomerIdentity struct {
	ID         int64
	CustomerID int64
	Provider   IdentityProvider
	ExternalID *string
	Email      *string // normalizado
	Phone      *string // normalizado
	Metadata   map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsAddressHash reporta si la identidad es sintética derivada de dirección.
func (i *CustomerIdentity) IsAddressHash() bool {
	return i.ExternalID != nil && strings.HasPrefix(*i.ExternalID, AddressHashPrefix)
}
