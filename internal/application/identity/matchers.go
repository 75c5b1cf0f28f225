package identity

import (
	"fmt"
	"sort"

	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

// MatchKind identificador que produjo la coincidencia.
type MatchKind string

const (
	MatchedByExternalID  MatchKind = "external_id"
	MatchedByEmail       MatchKind = "email"
	MatchedByPhone       MatchKind = "phone"
	MatchedByAddressHash MatchKind = "address_hash"
	MatchedByNone        MatchKind = "none"
)

// matcher un tier de la cadena de resolución. Cada matcher devuelve el
// conjunto de clientes candidatos para la observación (vacío si el tier no
// aplica). Añadir un nuevo tipo de identificador (p. ej. un id de programa de
// lealtad) es añadir un matcher más a la cadena, sin tocar los existentes.
type matcher interface {
	kind() MatchKind
	candidates(n *normalizedObs) ([]int64, error)
}

// externalIDMatcher tier 1: (provider, external_id) exacto. La unicidad en BD
// hace la coincidencia inambigua por definición.
type externalIDMatcher struct {
	identities repository.CustomerIdentityRepository
}

func (m *externalIDMatcher) kind() MatchKind { return MatchedByExternalID }

func (m *externalIDMatcher) candidates(n *normalizedObs) ([]int64, error) {
	if n.ExternalID == "" {
		return nil, nil
	}
	row, err := m.identities.GetByProviderExternalID(n.Provider, n.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("buscar identidad (%s, %s): %w", n.Provider, n.ExternalID, err)
	}
	if row == nil {
		return nil, nil
	}
	return []int64{row.CustomerID}, nil
}

// emailMatcher tier 2: unión de clientes con ese email primario y dueños de
// identidades con ese email.
type emailMatcher struct {
	customers  repository.CustomerRepository
	identities repository.CustomerIdentityRepository
}

func (m *emailMatcher) kind() MatchKind { return MatchedByEmail }

func (m *emailMatcher) candidates(n *normalizedObs) ([]int64, error) {
	if n.Email == "" {
		return nil, nil
	}
	primaries, err := m.customers.FindIDsByPrimaryEmail(n.Email)
	if err != nil {
		return nil, fmt.Errorf("buscar clientes por email: %w", err)
	}
	owners, err := m.identities.FindCustomerIDsByEmail(n.Email)
	if err != nil {
		return nil, fmt.Errorf("buscar identidades por email: %w", err)
	}
	return unionIDs(primaries, owners), nil
}

// phoneMatcher tier 3: mismo procedimiento que el tier 2 con el teléfono.
type phoneMatcher struct {
	customers  repository.CustomerRepository
	identities repository.CustomerIdentityRepository
}

func (m *phoneMatcher) kind() MatchKind { return MatchedByPhone }

func (m *phoneMatcher) candidates(n *normalizedObs) ([]int64, error) {
	if n.Phone == "" {
		return nil, nil
	}
	primaries, err := m.customers.FindIDsByPrimaryPhone(n.Phone)
	if err != nil {
		return nil, fmt.Errorf("buscar clientes por teléfono: %w", err)
	}
	owners, err := m.identities.FindCustomerIDsByPhone(n.Phone)
	if err != nil {
		return nil, fmt.Errorf("buscar identidades por teléfono: %w", err)
	}
	return unionIDs(primaries, owners), nil
}

// addressHashMatcher tier 4: identidades sintéticas address_hash:<h> del MISMO
// proveedor. No se cruza entre proveedores: cada uno formatea direcciones a su
// manera y un hash igual entre proveedores podría ser coincidencia.
type addressHashMatcher struct {
	identities repository.CustomerIdentityRepository
}

func (m *addressHashMatcher) kind() MatchKind { return MatchedByAddressHash }

func (m *addressHashMatcher) candidates(n *normalizedObs) ([]int64, error) {
	synthetic := n.syntheticExternalID()
	if synthetic == "" {
		return nil, nil
	}
	row, err := m.identities.GetByProviderExternalID(n.Provider, synthetic)
	if err != nil {
		return nil, fmt.Errorf("buscar identidad de dirección (%s, %s): %w", n.Provider, synthetic, err)
	}
	if row == nil {
		return nil, nil
	}
	return []int64{row.CustomerID}, nil
}

// unionIDs une dos listas de ids sin duplicados, en orden ascendente.
func unionIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	var out []int64
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// defaultMatchers la cadena de tiers en orden de evaluación.
func defaultMatchers(customers repository.CustomerRepository, identities repository.CustomerIdentityRepository) []matcher {
	return []matcher{
		&externalIDMatcher{identities: identities},
		&emailMatcher{customers: customers, identities: identities},
		&phoneMatcher{customers: customers, identities: identities},
		&addressHashMatcher{identities: identities},
	}
}
