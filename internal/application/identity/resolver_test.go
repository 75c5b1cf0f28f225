package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	identitydom "github.com/jhoicas/Soporte-api/internal/domain/identity"
)

func TestResolve_CreaClienteNuevo(t *testing.T) {
	resolver, _, _, identities, _ := newTestEngine()

	res, err := resolver.Resolve(context.Background(), Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
		Email:      "J@Acme.com",
		Phone:      "(555) 123-4567",
		FirstName:  "Jane",
		LastName:   "Doe",
	}, nil)

	require.NoError(t, err)
	require.NotNil(t, res.Customer)
	assert.True(t, res.IsNew)
	assert.False(t, res.IsAmbiguous)
	assert.Equal(t, MatchedByNone, res.MatchedBy)
	assert.Equal(t, "j@acme.com", *res.Customer.PrimaryEmail, "el email se guarda normalizado")
	assert.Equal(t, "+15551234567", *res.Customer.PrimaryPhone, "el teléfono se guarda normalizado")

	rows, _ := identities.ListByCustomer(res.Customer.ID)
	require.Len(t, rows, 1, "el alta debe dejar la identidad de origen")
	assert.Equal(t, "shop-1001", *rows[0].ExternalID)
}

// TestResolve_Idempotente la misma observación dos veces: mismo cliente, sin
// filas de identidad duplicadas.
func TestResolve_Idempotente(t *testing.T) {
	resolver, _, customers, identities, _ := newTestEngine()
	obs := Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
		Email:      "j@acme.com",
		Phone:      "5551234567",
	}
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, obs, nil)
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, obs, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Customer.ID, second.Customer.ID)
	assert.True(t, first.IsNew)
	assert.False(t, second.IsNew)
	assert.Equal(t, MatchedByExternalID, second.MatchedBy)
	assert.Len(t, customers.rows, 1)

	// Identidad externa + identidad solo-email del proveedor; una tercera
	// pasada no añade nada.
	rows, _ := identities.ListByCustomer(first.Customer.ID)
	require.Len(t, rows, 2)
	_, err = resolver.Resolve(ctx, obs, nil)
	require.NoError(t, err)
	rows, _ = identities.ListByCustomer(first.Customer.ID)
	assert.Len(t, rows, 2, "resoluciones repetidas no duplican identidades")
}

func TestResolve_MatchPorEmail(t *testing.T) {
	resolver, _, _, _, _ := newTestEngine()
	ctx := context.Background()

	created, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
		Email:      "j@acme.com",
	}, nil)
	require.NoError(t, err)

	// El sistema contable ve el mismo email con otro id externo.
	res, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderAccounting,
		ExternalID: "qb-77",
		Email:      "J@ACME.COM",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Customer.ID, res.Customer.ID)
	assert.Equal(t, MatchedByEmail, res.MatchedBy)
	assert.False(t, res.IsNew)
}

func TestResolve_MatchPorTelefono(t *testing.T) {
	resolver, _, _, _, _ := newTestEngine()
	ctx := context.Background()

	created, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1",
		Phone:      "(555) 123-4567",
	}, nil)
	require.NoError(t, err)

	res, err := resolver.Resolve(ctx, Observation{
		Provider: entity.ProviderSelfReported,
		Phone:    "1-555-123-4567", // mismo número, otro formato
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Customer.ID, res.Customer.ID)
	assert.Equal(t, MatchedByPhone, res.MatchedBy)
}

// TestResolve_EnriquecimientoMonotonico un cliente sin teléfono lo gana de una
// observación posterior, y un email distinto NUNCA pisa el ya fijado.
func TestResolve_EnriquecimientoMonotonico(t *testing.T) {
	resolver, _, customers, _, _ := newTestEngine()
	ctx := context.Background()

	created, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
		Email:      "j@acme.com",
	}, nil)
	require.NoError(t, err)
	require.Nil(t, created.Customer.PrimaryPhone)

	_, err = resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
		Email:      "j@acme.com",
		Phone:      "+15551234567",
	}, nil)
	require.NoError(t, err)

	stored, _ := customers.GetByID(created.Customer.ID)
	require.NotNil(t, stored.PrimaryPhone, "el teléfono debe completarse")
	assert.Equal(t, "+15551234567", *stored.PrimaryPhone)

	// Tercera observación con email diferente para el mismo id externo.
	_, err = resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
		Email:      "otro@acme.com",
	}, nil)
	require.NoError(t, err)

	stored, _ = customers.GetByID(created.Customer.ID)
	assert.Equal(t, "j@acme.com", *stored.PrimaryEmail,
		"el email primario ya fijado no se sobreescribe")
}

// seedSharedEmail deja dos clientes independientes A y B, ambos con el email
// x@example.com: A lo trae de origen; B nace solo con teléfono y gana el email
// después vía su propio id externo (backfill del enriquecedor).
func seedSharedEmail(t *testing.T, resolver *Resolver) (aID, bID int64) {
	t.Helper()
	ctx := context.Background()

	a, err := resolver.Resolve(ctx, Observation{
		Provider: entity.ProviderStorefront, ExternalID: "shop-1", Email: "x@example.com",
	}, nil)
	require.NoError(t, err)

	b, err := resolver.Resolve(ctx, Observation{
		Provider: entity.ProviderMarketplace, ExternalID: "amz-9", Phone: "5550001111",
	}, nil)
	require.NoError(t, err)
	require.NotEqual(t, a.Customer.ID, b.Customer.ID)

	// El marketplace reaparece con el email: tier 1 (id externo) gana antes
	// que el tier de email, así que B recibe el email sin tocar a A.
	res, err := resolver.Resolve(ctx, Observation{
		Provider: entity.ProviderMarketplace, ExternalID: "amz-9", Email: "x@example.com",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, b.Customer.ID, res.Customer.ID)
	require.Equal(t, MatchedByExternalID, res.MatchedBy)

	return a.Customer.ID, b.Customer.ID
}

// TestResolve_AmbiguoNoMutaNada dos clientes distintos comparten un email;
// una observación nueva con ese email debe salir ambigua con exactamente esos
// dos candidatos, sin crear ni mutar nada.
func TestResolve_AmbiguoNoMutaNada(t *testing.T) {
	resolver, _, customers, identities, _ := newTestEngine()
	aID, bID := seedSharedEmail(t, resolver)

	custAntes := len(customers.rows)
	identAntes := len(identities.rows)

	res, err := resolver.Resolve(context.Background(), Observation{
		Provider: entity.ProviderSelfReported,
		Email:    "x@example.com",
	}, nil)
	require.NoError(t, err, "la ambigüedad es un resultado terminal, no un error")
	require.True(t, res.IsAmbiguous)
	assert.Nil(t, res.Customer)
	assert.False(t, res.IsNew)
	assert.Equal(t, MatchedByEmail, res.MatchedBy)
	assert.Equal(t, []int64{aID, bID}, res.AmbiguousCustomerIDs,
		"los candidatos deben ser exactamente A y B")
	assert.Len(t, customers.rows, custAntes, "ningún cliente creado ni borrado")
	assert.Len(t, identities.rows, identAntes, "ninguna identidad creada")
}

// TestResolveOrCreate_AmbiguoDevuelveError el camino simple no puede reportar
// candidatos, así que jamás adivina: ErrAmbiguousMatch.
func TestResolveOrCreate_AmbiguoDevuelveError(t *testing.T) {
	resolver, _, _, _, _ := newTestEngine()
	seedSharedEmail(t, resolver)

	_, err := resolver.ResolveOrCreate(context.Background(), Observation{
		Provider: entity.ProviderSelfReported,
		Email:    "x@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrAmbiguousMatch)
}

func TestResolve_ObservacionInvalida(t *testing.T) {
	resolver, _, _, _, _ := newTestEngine()

	_, err := resolver.Resolve(context.Background(), Observation{Provider: "desconocido", Email: "a@b.c"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "proveedor desconocido se rechaza antes de tocar la BD")

	_, err = resolver.Resolve(context.Background(), Observation{Provider: entity.ProviderStorefront}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin ningún identificador utilizable se rechaza")
}

// TestResolve_TierDireccion el marketplace retiene email y teléfono; dos
// pedidos con la misma dirección deben caer en el mismo cliente vía tier 4,
// y el mismo hash desde otro proveedor no debe cruzarse.
func TestResolve_TierDireccion(t *testing.T) {
	resolver, _, customers, _, _ := newTestEngine()
	ctx := context.Background()
	addr := &identitydom.PostalAddress{
		Name: "John Doe", Line1: "123 Main St", City: "Springfield", PostalCode: "62704",
	}

	first, err := resolver.Resolve(ctx, Observation{Provider: entity.ProviderMarketplace}, addr)
	require.NoError(t, err)
	require.True(t, first.IsNew)

	// Misma dirección con formato distinto.
	addr2 := &identitydom.PostalAddress{
		Name: "JOHN DOE", Line1: "123 Main St.", City: "springfield", PostalCode: "062704",
	}
	second, err := resolver.Resolve(ctx, Observation{Provider: entity.ProviderMarketplace}, addr2)
	require.NoError(t, err)
	assert.Equal(t, first.Customer.ID, second.Customer.ID)
	assert.Equal(t, MatchedByAddressHash, second.MatchedBy)

	third, err := resolver.Resolve(ctx, Observation{Provider: entity.ProviderFulfillment}, addr)
	require.NoError(t, err)
	assert.True(t, third.IsNew, "las identidades de dirección no se comparan entre proveedores")
	assert.Len(t, customers.rows, 2)
}

// racingIdentityRepo simula la carrera de webhooks duplicados: las primeras
// lecturas por (provider, external_id) fallan en encontrar la fila que el otro
// proceso "acaba de" insertar, de modo que el alta choca con la unicidad.
type racingIdentityRepo struct {
	*fakeIdentityRepo
	misses int
}

func (r *racingIdentityRepo) GetByProviderExternalID(provider entity.IdentityProvider, externalID string) (*entity.CustomerIdentity, error) {
	if r.misses > 0 {
		r.misses--
		return nil, nil
	}
	return r.fakeIdentityRepo.GetByProviderExternalID(provider, externalID)
}

// TestResolve_CarreraDeAlta la violación de unicidad en el INSERT no es fatal:
// se revierte el alta, se re-lee y se devuelve el cliente que el otro proceso
// creó. Exactamente un cliente al final.
func TestResolve_CarreraDeAlta(t *testing.T) {
	customers := newFakeCustomerRepo()
	inner := newFakeIdentityRepo()
	racing := &racingIdentityRepo{fakeIdentityRepo: inner, misses: 1}
	relations := &fakeRelationsRepo{}
	tx := &fakeTxRunner{customers: customers, identities: inner, relations: relations}
	resolver := NewResolver(customers, racing, tx, testLogger())
	ctx := context.Background()

	// Estado previo: el "otro proceso" ya creó cliente e identidad.
	existing := &entity.Customer{CreditRisk: entity.CreditRiskNone}
	require.NoError(t, customers.Create(existing))
	require.NoError(t, inner.Create(&entity.CustomerIdentity{
		CustomerID: existing.ID,
		Provider:   entity.ProviderStorefront,
		ExternalID: strPtr("shop-1001"),
	}))

	// Nuestra resolución: el tier 1 no ve la fila (carrera), el alta choca
	// con la unicidad, y el reintento único la encuentra.
	res, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-1001",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.Customer.ID)
	assert.False(t, res.IsNew)
	assert.Equal(t, MatchedByExternalID, res.MatchedBy)
	assert.Len(t, customers.rows, 1, "el alta revertida no deja cliente huérfano")
}

// TestResolve_EscenarioExtremoAExtremo storefront crea, accounting aporta el
// teléfono vía match por email, marketplace enlaza por dirección sin alterar
// los primarios existentes.
func TestResolve_EscenarioExtremoAExtremo(t *testing.T) {
	resolver, _, customers, identities, _ := newTestEngine()
	ctx := context.Background()

	// 1. Pedido de la tienda: email, sin teléfono.
	created, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderStorefront,
		ExternalID: "shop-5001",
		Email:      "j@acme.com",
		FirstName:  "Jane",
	}, nil)
	require.NoError(t, err)
	require.True(t, created.IsNew)
	require.Nil(t, created.Customer.PrimaryPhone)

	// 2. Sync contable: mismo email, ahora con teléfono.
	second, err := resolver.Resolve(ctx, Observation{
		Provider:   entity.ProviderAccounting,
		ExternalID: "qb-300",
		Email:      "j@acme.com",
		Phone:      "+15551234567",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, MatchedByEmail, second.MatchedBy)

	stored, _ := customers.GetByID(created.Customer.ID)
	require.NotNil(t, stored.PrimaryPhone)
	assert.Equal(t, "+15551234567", *stored.PrimaryPhone)

	// 3. Marketplace sin PII: la primera compra crea la identidad sintética
	// de dirección, la segunda con la misma dirección cae en tier 4.
	mpAddr := &identitydom.PostalAddress{
		Name: "Jane Roe", Line1: "9 Elm St", City: "Portland", PostalCode: "97201",
	}
	mp1, err := resolver.Resolve(ctx, Observation{Provider: entity.ProviderMarketplace}, mpAddr)
	require.NoError(t, err)
	require.True(t, mp1.IsNew)

	mp2, err := resolver.Resolve(ctx, Observation{Provider: entity.ProviderMarketplace}, mpAddr)
	require.NoError(t, err)
	assert.Equal(t, mp1.Customer.ID, mp2.Customer.ID)
	assert.Equal(t, MatchedByAddressHash, mp2.MatchedBy)

	rows, _ := identities.ListByCustomer(mp1.Customer.ID)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsAddressHash())

	// Los primarios del cliente original quedaron intactos.
	stored, _ = customers.GetByID(created.Customer.ID)
	assert.Equal(t, "j@acme.com", *stored.PrimaryEmail)
	assert.Equal(t, "Jane", *stored.FirstName)
}

// TestResolve_IdentidadInconsistente una identidad que apunta a un cliente
// inexistente debe producir error, nunca un cliente fantasma.
func TestResolve_IdentidadInconsistente(t *testing.T) {
	resolver, _, customers, _, _ := newTestEngine()
	ctx := context.Background()

	created, err := resolver.Resolve(ctx, Observation{
		Provider: entity.ProviderStorefront, ExternalID: "shop-1",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, customers.Delete(created.Customer.ID))

	_, err = resolver.Resolve(ctx, Observation{
		Provider: entity.ProviderStorefront, ExternalID: "shop-1",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
