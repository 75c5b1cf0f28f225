package identity

import (
	"context"
	"sort"

	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
	"github.com/jhoicas/Soporte-api/pkg/logger"
)

// Fakes en memoria de los puertos de persistencia, con la misma semántica que
// los adaptadores de Postgres: unicidad (provider, external_id), clones al
// leer (mutar exige Update) y rollback simulado en el TxRunner.

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "development", Level: "error"})
}

// ── clientes ─────────────────────────────────────────────────────────────────

type fakeCustomerRepo struct {
	seq  int64
	rows map[int64]*entity.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{rows: map[int64]*entity.Customer{}}
}

func cloneCustomer(c *entity.Customer) *entity.Customer {
	cp := *c
	cp.PrimaryEmail = clonePtr(c.PrimaryEmail)
	cp.PrimaryPhone = clonePtr(c.PrimaryPhone)
	cp.FirstName = clonePtr(c.FirstName)
	cp.LastName = clonePtr(c.LastName)
	cp.Company = clonePtr(c.Company)
	return &cp
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *fakeCustomerRepo) Create(c *entity.Customer) error {
	r.seq++
	c.ID = r.seq
	r.rows[c.ID] = cloneCustomer(c)
	return nil
}

func (r *fakeCustomerRepo) GetByID(id int64) (*entity.Customer, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return cloneCustomer(c), nil
}

func (r *fakeCustomerRepo) List(limit, offset int) ([]*entity.Customer, error) {
	ids := r.sortedIDs()
	var out []*entity.Customer
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		out = append(out, cloneCustomer(r.rows[id]))
	}
	return out, nil
}

func (r *fakeCustomerRepo) Update(c *entity.Customer) error {
	if _, ok := r.rows[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[c.ID] = cloneCustomer(c)
	return nil
}

func (r *fakeCustomerRepo) FindIDsByPrimaryEmail(email string) ([]int64, error) {
	var out []int64
	for _, id := range r.sortedIDs() {
		c := r.rows[id]
		if c.PrimaryEmail != nil && *c.PrimaryEmail == email {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) FindIDsByPrimaryPhone(phone string) ([]int64, error) {
	var out []int64
	for _, id := range r.sortedIDs() {
		c := r.rows[id]
		if c.PrimaryPhone != nil && *c.PrimaryPhone == phone {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) LockByIDs(ids []int64) ([]int64, error) {
	var found []int64
	for _, id := range ids {
		if _, ok := r.rows[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (r *fakeCustomerRepo) Delete(id int64) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeCustomerRepo) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ── identidades ──────────────────────────────────────────────────────────────

type fakeIdentityRepo struct {
	seq  int64
	rows map[int64]*entity.CustomerIdentity
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{rows: map[int64]*entity.CustomerIdentity{}}
}

func cloneIdentity(i *entity.CustomerIdentity) *entity.CustomerIdentity {
	cp := *i
	cp.ExternalID = clonePtr(i.ExternalID)
	cp.Email = clonePtr(i.Email)
	cp.Phone = clonePtr(i.Phone)
	cp.Metadata = make(map[string]string, len(i.Metadata))
	for k, v := range i.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

func (r *fakeIdentityRepo) Create(i *entity.CustomerIdentity) error {
	if i.ExternalID != nil {
		for _, row := range r.rows {
			if row.Provider == i.Provider && row.ExternalID != nil && *row.ExternalID == *i.ExternalID {
				return domain.ErrDuplicate
			}
		}
	}
	r.seq++
	i.ID = r.seq
	r.rows[i.ID] = cloneIdentity(i)
	return nil
}

func (r *fakeIdentityRepo) GetByProviderExternalID(provider entity.IdentityProvider, externalID string) (*entity.CustomerIdentity, error) {
	for _, id := range r.sortedIDs() {
		row := r.rows[id]
		if row.Provider == provider && row.ExternalID != nil && *row.ExternalID == externalID {
			return cloneIdentity(row), nil
		}
	}
	return nil, nil
}

func (r *fakeIdentityRepo) Update(i *entity.CustomerIdentity) error {
	if _, ok := r.rows[i.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[i.ID] = cloneIdentity(i)
	return nil
}

func (r *fakeIdentityRepo) ListByCustomer(customerID int64) ([]*entity.CustomerIdentity, error) {
	var out []*entity.CustomerIdentity
	for _, id := range r.sortedIDs() {
		if r.rows[id].CustomerID == customerID {
			out = append(out, cloneIdentity(r.rows[id]))
		}
	}
	return out, nil
}

func (r *fakeIdentityRepo) FindCustomerIDsByEmail(email string) ([]int64, error) {
	seen := map[int64]struct{}{}
	var out []int64
	for _, id := range r.sortedIDs() {
		row := r.rows[id]
		if row.Email != nil && *row.Email == email {
			if _, ok := seen[row.CustomerID]; !ok {
				seen[row.CustomerID] = struct{}{}
				out = append(out, row.CustomerID)
			}
		}
	}
	return out, nil
}

func (r *fakeIdentityRepo) FindCustomerIDsByPhone(phone string) ([]int64, error) {
	seen := map[int64]struct{}{}
	var out []int64
	for _, id := range r.sortedIDs() {
		row := r.rows[id]
		if row.Phone != nil && *row.Phone == phone {
			if _, ok := seen[row.CustomerID]; !ok {
				seen[row.CustomerID] = struct{}{}
				out = append(out, row.CustomerID)
			}
		}
	}
	return out, nil
}

func (r *fakeIdentityRepo) ExistsEmailOnly(customerID int64, provider entity.IdentityProvider, email string) (bool, error) {
	for _, row := range r.rows {
		if row.CustomerID == customerID && row.Provider == provider &&
			row.ExternalID == nil && row.Email != nil && *row.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeIdentityRepo) Repoint(fromCustomerID, toCustomerID int64) error {
	for _, row := range r.rows {
		if row.CustomerID == fromCustomerID {
			row.CustomerID = toCustomerID
		}
	}
	return nil
}

func (r *fakeIdentityRepo) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ── filas dependientes (orders, tickets, ...) ────────────────────────────────

type relRow struct {
	Table      string
	CustomerID int64
}

type fakeRelationsRepo struct {
	rows    []relRow
	failErr error // si no es nil, RepointAll falla (para probar rollback)
}

func (r *fakeRelationsRepo) RepointAll(fromCustomerID, toCustomerID int64) (int64, error) {
	if r.failErr != nil {
		return 0, r.failErr
	}
	var n int64
	for i := range r.rows {
		if r.rows[i].CustomerID == fromCustomerID {
			r.rows[i].CustomerID = toCustomerID
			n++
		}
	}
	return n, nil
}

func (r *fakeRelationsRepo) countFor(customerID int64) int {
	n := 0
	for _, row := range r.rows {
		if row.CustomerID == customerID {
			n++
		}
	}
	return n
}

// ── TxRunner ─────────────────────────────────────────────────────────────────

// fakeTxRunner ejecuta el callback sobre los mismos fakes y simula el
// rollback: si fn falla, restaura el estado previo de todos los stores.
type fakeTxRunner struct {
	customers  *fakeCustomerRepo
	identities *fakeIdentityRepo
	relations  *fakeRelationsRepo
}

func (t *fakeTxRunner) snapshot() (map[int64]*entity.Customer, int64, map[int64]*entity.CustomerIdentity, int64, []relRow) {
	cust := make(map[int64]*entity.Customer, len(t.customers.rows))
	for id, c := range t.customers.rows {
		cust[id] = cloneCustomer(c)
	}
	idents := make(map[int64]*entity.CustomerIdentity, len(t.identities.rows))
	for id, i := range t.identities.rows {
		idents[id] = cloneIdentity(i)
	}
	rels := append([]relRow(nil), t.relations.rows...)
	return cust, t.customers.seq, idents, t.identities.seq, rels
}

func (t *fakeTxRunner) runWithRollback(fn func() error) error {
	cust, custSeq, idents, identSeq, rels := t.snapshot()
	if err := fn(); err != nil {
		t.customers.rows, t.customers.seq = cust, custSeq
		t.identities.rows, t.identities.seq = idents, identSeq
		t.relations.rows = rels
		return err
	}
	return nil
}

func (t *fakeTxRunner) RunIdentity(_ context.Context, fn func(
	customers repository.CustomerRepository,
	identities repository.CustomerIdentityRepository,
) error) error {
	return t.runWithRollback(func() error { return fn(t.customers, t.identities) })
}

func (t *fakeTxRunner) RunMerge(_ context.Context, fn func(
	customers repository.CustomerRepository,
	identities repository.CustomerIdentityRepository,
	relations repository.CustomerRelationsRepository,
) error) error {
	return t.runWithRollback(func() error { return fn(t.customers, t.identities, t.relations) })
}

// newTestEngine motor completo sobre fakes, listo para los tests.
func newTestEngine() (*Resolver, *MergeService, *fakeCustomerRepo, *fakeIdentityRepo, *fakeRelationsRepo) {
	customers := newFakeCustomerRepo()
	identities := newFakeIdentityRepo()
	relations := &fakeRelationsRepo{}
	tx := &fakeTxRunner{customers: customers, identities: identities, relations: relations}
	log := testLogger()
	return NewResolver(customers, identities, tx, log),
		NewMergeService(customers, identities, tx, log),
		customers, identities, relations
}
