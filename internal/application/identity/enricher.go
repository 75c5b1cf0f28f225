package identity

import (
	"time"

	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
	"github.com/jhoicas/Soporte-api/pkg/logger"
)

// Enricher mejora al cliente en cada resolución no ambigua: rellena primarios
// vacíos con lo que trae la observación y deja fila de identidad durable por
// cada proveedor que haya visto al cliente. Nunca pisa un valor ya fijado:
// solo el merge explícito puede sobreescribir.
type Enricher struct {
	customers  repository.CustomerRepository
	identities repository.CustomerIdentityRepository
	log        *logger.Logger
}

// NewEnricher construye el enriquecedor.
func NewEnricher(customers repository.CustomerRepository, identities repository.CustomerIdentityRepository, log *logger.Logger) *Enricher {
	return &Enricher{customers: customers, identities: identities, log: log}
}

// Enrich backfill de primarios + enlace de identidades para una observación
// ya resuelta a este cliente.
func (e *Enricher) Enrich(customer *entity.Customer, n *normalizedObs) error {
	if backfillPrimaries(customer, n) {
		customer.UpdatedAt = time.Now()
		if err := e.customers.Update(customer); err != nil {
			return err
		}
		e.log.Debug().
			Int64("customer_id", customer.ID).
			Str("provider", string(n.Provider)).
			Msg("primarios del cliente completados desde la observación")
	}
	return e.linkIdentities(customer, n)
}

// backfillPrimaries rellena cada campo primario nulo con el valor de la
// observación. Los valores existentes jamás se tocan: el cliente mejora de
// forma monotónica. Devuelve true si algo cambió.
func backfillPrimaries(customer *entity.Customer, n *normalizedObs) bool {
	changed := false
	changed = fillIfNil(&customer.PrimaryEmail, n.Email) || changed
	changed = fillIfNil(&customer.PrimaryPhone, n.Phone) || changed
	changed = fillIfNil(&customer.FirstName, n.FirstName) || changed
	changed = fillIfNil(&customer.LastName, n.LastName) || changed
	changed = fillIfNil(&customer.Company, n.Company) || changed
	return changed
}

// fillIfNil asigna v a *dst solo si *dst es nil y v no es vacío.
func fillIfNil(dst **string, v string) bool {
	if *dst != nil || v == "" {
		return false
	}
	*dst = &v
	return true
}

// linkIdentities garantiza las filas de identidad de esta observación:
//
//   - la fila (provider, external_id), creada si no existe o actualizada si
//     reaparece con mejores datos (email/teléfono que antes faltaban)
//   - la fila "solo email" del proveedor, para que todo proveedor que haya
//     observado al cliente quede registrado aun sin id externo
//
// Estas filas alimentan los chequeos de ambigüedad futuros y el reporte
// matchedOn del flujo de merge.
func (e *Enricher) linkIdentities(customer *entity.Customer, n *normalizedObs) error {
	now := time.Now()

	if n.ExternalID != "" {
		row, err := e.identities.GetByProviderExternalID(n.Provider, n.ExternalID)
		if err != nil {
			return err
		}
		switch {
		case row == nil:
			meta := withAddressSnapshot(copyMetadata(n.Metadata), n.address)
			if n.addressHash != "" && n.Email == "" && n.Phone == "" {
				// El id externo llega donde antes solo había dirección:
				// dejar rastro de la identidad sintética que lo precedió.
				meta[entity.MetaOriginalExternalID] = n.syntheticExternalID()
			}
			ident := &entity.CustomerIdentity{
				CustomerID: customer.ID,
				Provider:   n.Provider,
				ExternalID: strPtr(n.ExternalID),
				Email:      nilIfEmpty(n.Email),
				Phone:      nilIfEmpty(n.Phone),
				Metadata:   meta,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := e.identities.Create(ident); err != nil {
				return err
			}
		case updateIdentityInPlace(row, n):
			row.UpdatedAt = now
			if err := e.identities.Update(row); err != nil {
				return err
			}
		}
	}

	if n.Email != "" {
		exists, err := e.identities.ExistsEmailOnly(customer.ID, n.Provider, n.Email)
		if err != nil {
			return err
		}
		if !exists {
			ident := &entity.CustomerIdentity{
				CustomerID: customer.ID,
				Provider:   n.Provider,
				Email:      strPtr(n.Email),
				Phone:      nilIfEmpty(n.Phone),
				Metadata:   map[string]string{entity.MetaIdentityType: "email"},
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := e.identities.Create(ident); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateIdentityInPlace completa email/teléfono/metadata de la fila cuando la
// misma (provider, external_id) reaparece con datos que antes faltaban.
// Devuelve true si algo cambió.
func updateIdentityInPlace(row *entity.CustomerIdentity, n *normalizedObs) bool {
	changed := false
	changed = fillIfNil(&row.Email, n.Email) || changed
	changed = fillIfNil(&row.Phone, n.Phone) || changed
	for k, v := range n.Metadata {
		if _, ok := row.Metadata[k]; !ok {
			if row.Metadata == nil {
				row.Metadata = map[string]string{}
			}
			row.Metadata[k] = v
			changed = true
		}
	}
	return changed
}
