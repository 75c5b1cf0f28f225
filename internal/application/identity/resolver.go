package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	identitydom "github.com/jhoicas/Soporte-api/internal/domain/identity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
	"github.com/jhoicas/Soporte-api/pkg/logger"
)

// ResolutionResult resultado etiquetado de una resolución.
//
// Exactamente uno de tres desenlaces:
//   - coincidencia única: Customer con MatchedBy external_id|email|phone|address_hash
//   - cliente nuevo: Customer con IsNew=true y MatchedBy=none
//   - ambiguo: IsAmbiguous=true con los candidatos en AmbiguousCustomerIDs
//
// El desenlace ambiguo es TERMINAL: el caller no reintenta, no adivina, y
// presenta los candidatos a un operador (cola de revisión de merges). Un merge
// automático equivocado corrompe historial de pedidos y cartera de forma
// irreversible; por eso todo camino automático prefiere "ambiguo, no hacer
// nada" sobre "probablemente este".
type ResolutionResult struct {
	Customer             *entity.Customer
	MatchedBy            MatchKind
	IsNew                bool
	IsAmbiguous          bool
	AmbiguousCustomerIDs []int64
}

// Resolver motor de resolución de identidad: dada una observación encuentra
// el único cliente que coincide, detecta coincidencias multi-cliente o crea
// un cliente nuevo. Cadena de tiers en orden, el primero que pega gana.
type Resolver struct {
	customers  repository.CustomerRepository
	identities repository.CustomerIdentityRepository
	tiers      []matcher
	enricher   *Enricher
	tx         TxRunner
	log        *logger.Logger
}

// NewResolver construye el motor con la cadena de tiers por defecto.
func NewResolver(
	customers repository.CustomerRepository,
	identities repository.CustomerIdentityRepository,
	tx TxRunner,
	log *logger.Logger,
) *Resolver {
	return &Resolver{
		customers:  customers,
		identities: identities,
		tiers:      defaultMatchers(customers, identities),
		enricher:   NewEnricher(customers, identities, log),
		tx:         tx,
		log:        log,
	}
}

// Resolve camino completo con reporte de ambigüedad.
// Tiers en orden: external_id → email → teléfono → hash de dirección → alta.
func (r *Resolver) Resolve(ctx context.Context, obs Observation, addr *identitydom.PostalAddress) (*ResolutionResult, error) {
	n, err := normalizeObservation(obs, addr)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, n, true)
}

// ResolveOrCreate camino simple para callers que no pueden actuar ante
// ambigüedad: nunca adivina, devuelve ErrAmbiguousMatch.
func (r *Resolver) ResolveOrCreate(ctx context.Context, obs Observation) (*entity.Customer, error) {
	res, err := r.Resolve(ctx, obs, nil)
	if err != nil {
		return nil, err
	}
	if res.IsAmbiguous {
		return nil, fmt.Errorf("%w: candidatos %v", domain.ErrAmbiguousMatch, res.AmbiguousCustomerIDs)
	}
	return res.Customer, nil
}

func (r *Resolver) resolve(ctx context.Context, n *normalizedObs, allowRetry bool) (*ResolutionResult, error) {
	for _, tier := range r.tiers {
		ids, err := tier.candidates(n)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}
		if len(ids) > 1 {
			// Terminal: varios clientes comparten el identificador. No se
			// resuelve nada y no se muta nada; decide un humano.
			r.log.Warn().
				Str("provider", string(n.Provider)).
				Str("matched_by", string(tier.kind())).
				Ints64("candidatos", ids).
				Msg("coincidencia ambigua, derivada a revisión manual")
			return &ResolutionResult{
				MatchedBy:            tier.kind(),
				IsAmbiguous:          true,
				AmbiguousCustomerIDs: ids,
			}, nil
		}

		customer, err := r.customers.GetByID(ids[0])
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, fmt.Errorf("identidad apunta a cliente inexistente %d: %w", ids[0], domain.ErrNotFound)
		}
		if err := r.enricher.Enrich(customer, n); err != nil {
			if errors.Is(err, domain.ErrDuplicate) && allowRetry {
				// Otro proceso enlazó esta identidad entre la lectura y el
				// INSERT. Re-leer y re-resolver una sola vez.
				return r.resolve(ctx, n, false)
			}
			return nil, err
		}
		return &ResolutionResult{Customer: customer, MatchedBy: tier.kind()}, nil
	}

	res, err := r.create(ctx, n)
	if errors.Is(err, domain.ErrDuplicate) && allowRetry {
		// Carrera de creación (webhook duplicado): otro proceso acaba de
		// insertar esta identidad. Re-leer y re-resolver una sola vez.
		r.log.Warn().
			Str("provider", string(n.Provider)).
			Str("external_id", n.ExternalID).
			Msg("carrera de alta detectada, re-resolviendo")
		return r.resolve(ctx, n, false)
	}
	return res, err
}

// create tier 5: alta de cliente nuevo con su identidad de origen, en una
// sola transacción. Si la identidad choca con la unicidad (provider,
// external_id), todo se revierte y el error sube para el reintento.
func (r *Resolver) create(ctx context.Context, n *normalizedObs) (*ResolutionResult, error) {
	now := time.Now()
	customer := &entity.Customer{
		PrimaryEmail: nilIfEmpty(n.Email),
		PrimaryPhone: nilIfEmpty(n.Phone),
		FirstName:    nilIfEmpty(n.FirstName),
		LastName:     nilIfEmpty(n.LastName),
		Company:      nilIfEmpty(n.Company),
		CreditRisk:   entity.CreditRiskNone,
		ARBalance:    decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.tx.RunIdentity(ctx, func(
		customers repository.CustomerRepository,
		identities repository.CustomerIdentityRepository,
	) error {
		if err := customers.Create(customer); err != nil {
			return err
		}
		if ident := originatingIdentity(customer.ID, n, now); ident != nil {
			if err := identities.Create(ident); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Int64("customer_id", customer.ID).
		Str("provider", string(n.Provider)).
		Msg("cliente nuevo creado por el motor de identidad")
	return &ResolutionResult{Customer: customer, MatchedBy: MatchedByNone, IsNew: true}, nil
}

// originatingIdentity la identidad que acompaña al alta: el id externo si
// existe; si no, la sintética de dirección cuando hay dirección y no hay
// email. Sin ninguna de las dos, el cliente nace sin fila de identidad (sus
// primarios bastan para los tiers 2/3).
func originatingIdentity(customerID int64, n *normalizedObs, now time.Time) *entity.CustomerIdentity {
	switch {
	case n.ExternalID != "":
		return &entity.CustomerIdentity{
			CustomerID: customerID,
			Provider:   n.Provider,
			ExternalID: strPtr(n.ExternalID),
			Email:      nilIfEmpty(n.Email),
			Phone:      nilIfEmpty(n.Phone),
			Metadata:   withAddressSnapshot(copyMetadata(n.Metadata), n.address),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	case n.addressHash != "" && n.Email == "":
		meta := copyMetadata(n.Metadata)
		meta[entity.MetaIdentityType] = "address_hash"
		return &entity.CustomerIdentity{
			CustomerID: customerID,
			Provider:   n.Provider,
			ExternalID: strPtr(n.syntheticExternalID()),
			Phone:      nilIfEmpty(n.Phone),
			Metadata:   withAddressSnapshot(meta, n.address),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	default:
		return nil
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strPtr(s string) *string { return &s }

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// withAddressSnapshot conserva la dirección original en la metadata de la
// identidad, para auditoría del hash.
func withAddressSnapshot(meta map[string]string, addr *identitydom.PostalAddress) map[string]string {
	if addr == nil {
		return meta
	}
	meta[entity.MetaRawAddress] = fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		addr.Name, addr.Line1, addr.Line2, addr.City, addr.State, addr.PostalCode, addr.Country)
	return meta
}
