package identity

import (
	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/identity"
)

// Observation la vista que un proveedor tiene de un cliente: subconjunto de
// email/teléfono/nombre/empresa/id externo. La producen los jobs de
// sincronización y los handlers de tickets entrantes; el motor nunca llama a
// APIs externas.
type Observation struct {
	Provider   entity.IdentityProvider
	ExternalID string
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	Company    string
	Metadata   map[string]string
}

// normalizedObs observación con identificadores ya canonizados, lista para
// comparar por igualdad exacta. Solo el Resolver la construye.
type normalizedObs struct {
	Observation
	addressHash string
	address     *identity.PostalAddress
}

// normalizeObservation valida y canoniza la observación. Reglas:
// el proveedor debe ser conocido y debe existir al menos un identificador
// utilizable (id externo, email, teléfono o dirección hasheable); si no,
// la observación se rechaza antes de tocar la BD.
func normalizeObservation(obs Observation, addr *identity.PostalAddress) (*normalizedObs, error) {
	if !obs.Provider.Valid() {
		return nil, domain.ErrInvalidInput
	}
	n := &normalizedObs{Observation: obs, address: addr}
	n.Email = identity.NormalizeEmail(obs.Email)
	n.Phone = identity.NormalizePhone(obs.Phone)
	if addr != nil {
		n.addressHash = identity.ComputeAddressHash(*addr)
	}
	if n.ExternalID == "" && n.Email == "" && n.Phone == "" && n.addressHash == "" {
		return nil, domain.ErrInvalidInput
	}
	return n, nil
}

// syntheticExternalID external_id sintético para identidades derivadas de dirección.
func (n *normalizedObs) syntheticExternalID() string {
	if n.addressHash == "" {
		return ""
	}
	return entity.AddressHashPrefix + n.addressHash
}
