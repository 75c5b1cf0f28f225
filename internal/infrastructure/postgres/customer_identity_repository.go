package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

var _ repository.CustomerIdentityRepository = (*CustomerIdentityRepo)(nil)

// CustomerIdentityRepo implementación de CustomerIdentityRepository (pool o tx).
// La tabla lleva un índice único parcial sobre (provider, external_id) con
// external_id no nulo: la llave de idempotencia de la ingesta.
type CustomerIdentityRepo struct {
	q Querier
}

// NewCustomerIdentityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerIdentityRepository(q Querier) *CustomerIdentityRepo {
	return &CustomerIdentityRepo{q: q}
}

const identityColumns = `id, customer_id, provider, external_id, email, phone, metadata, created_at, updated_at`

func scanIdentity(row pgx.Row) (*entity.CustomerIdentity, error) {
	var i entity.CustomerIdentity
	var meta []byte
	err := row.Scan(
		&i.ID, &i.CustomerID, &i.Provider, &i.ExternalID, &i.Email, &i.Phone,
		&meta, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &i.Metadata); err != nil {
			return nil, fmt.Errorf("decode identity metadata: %w", err)
		}
	}
	return &i, nil
}

func encodeMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Create persiste una identidad. Devuelve domain.ErrDuplicate si choca con la
// unicidad (provider, external_id): el Resolver lo trata como carrera de alta.
func (r *CustomerIdentityRepo) Create(i *entity.CustomerIdentity) error {
	meta, err := encodeMetadata(i.Metadata)
	if err != nil {
		return fmt.Errorf("encode identity metadata: %w", err)
	}
	query := `
		INSERT INTO customer_identities (customer_id, provider, external_id, email, phone, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err = r.q.QueryRow(context.Background(), query,
		i.CustomerID, i.Provider, i.ExternalID, i.Email, i.Phone, meta, i.CreatedAt, i.UpdatedAt,
	).Scan(&i.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// GetByProviderExternalID identidad exacta de un proveedor. (nil, nil) si no existe.
func (r *CustomerIdentityRepo) GetByProviderExternalID(provider entity.IdentityProvider, externalID string) (*entity.CustomerIdentity, error) {
	query := `SELECT ` + identityColumns + ` FROM customer_identities WHERE provider = $1 AND external_id = $2`
	i, err := scanIdentity(r.q.QueryRow(context.Background(), query, provider, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return i, nil
}

// Update actualiza email/phone/metadata de la identidad.
func (r *CustomerIdentityRepo) Update(i *entity.CustomerIdentity) error {
	meta, err := encodeMetadata(i.Metadata)
	if err != nil {
		return fmt.Errorf("encode identity metadata: %w", err)
	}
	query := `
		UPDATE customer_identities
		SET email = $2, phone = $3, metadata = $4, updated_at = $5
		WHERE id = $1`
	_, err = r.q.Exec(context.Background(), query, i.ID, i.Email, i.Phone, meta, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}

// ListByCustomer identidades de un cliente, más antigua primero.
func (r *CustomerIdentityRepo) ListByCustomer(customerID int64) ([]*entity.CustomerIdentity, error) {
	query := `SELECT ` + identityColumns + ` FROM customer_identities WHERE customer_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()
	var list []*entity.CustomerIdentity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

// FindCustomerIDsByEmail ids únicos de clientes dueños de identidades con ese email.
func (r *CustomerIdentityRepo) FindCustomerIDsByEmail(email string) ([]int64, error) {
	return r.findCustomerIDs(`SELECT DISTINCT customer_id FROM customer_identities WHERE email = $1 ORDER BY customer_id`, email)
}

// FindCustomerIDsByPhone ids únicos de clientes dueños de identidades con ese teléfono.
func (r *CustomerIdentityRepo) FindCustomerIDsByPhone(phone string) ([]int64, error) {
	return r.findCustomerIDs(`SELECT DISTINCT customer_id FROM customer_identities WHERE phone = $1 ORDER BY customer_id`, phone)
}

func (r *CustomerIdentityRepo) findCustomerIDs(query string, arg any) ([]int64, error) {
	rows, err := r.q.Query(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("find identity owners: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExistsEmailOnly reporta si el cliente ya tiene la identidad "solo email"
// de ese proveedor.
func (r *CustomerIdentityRepo) ExistsEmailOnly(customerID int64, provider entity.IdentityProvider, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM customer_identities
			WHERE customer_id = $1 AND provider = $2 AND email = $3 AND external_id IS NULL
		)`
	var exists bool
	err := r.q.QueryRow(context.Background(), query, customerID, provider, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email identity: %w", err)
	}
	return exists, nil
}

// Repoint mueve todas las identidades de un cliente a otro (merge).
func (r *CustomerIdentityRepo) Repoint(fromCustomerID, toCustomerID int64) error {
	query := `UPDATE customer_identities SET customer_id = $2, updated_at = now() WHERE customer_id = $1`
	_, err := r.q.Exec(context.Background(), query, fromCustomerID, toCustomerID)
	if err != nil {
		return fmt.Errorf("repoint identities: %w", err)
	}
	return nil
}
