package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, primary_email, primary_phone, first_name, last_name, company,
	vip, credit_risk, ar_balance, created_at, updated_at`

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(
		&c.ID, &c.PrimaryEmail, &c.PrimaryPhone, &c.FirstName, &c.LastName, &c.Company,
		&c.VIP, &c.CreditRisk, &c.ARBalance, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un nuevo cliente y asigna su ID.
func (r *CustomerRepo) Create(c *entity.Customer) error {
	query := `
		INSERT INTO customers (primary_email, primary_phone, first_name, last_name, company,
			vip, credit_risk, ar_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		c.PrimaryEmail, c.PrimaryPhone, c.FirstName, c.LastName, c.Company,
		c.VIP, c.CreditRisk, c.ARBalance, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID. Devuelve (nil, nil) si no existe.
func (r *CustomerRepo) GetByID(id int64) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List lista clientes con paginación.
func (r *CustomerRepo) List(limit, offset int) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update sobreescribe los campos mutables del cliente.
func (r *CustomerRepo) Update(c *entity.Customer) error {
	query := `
		UPDATE customers
		SET primary_email = $2, primary_phone = $3, first_name = $4, last_name = $5,
			company = $6, vip = $7, credit_risk = $8, ar_balance = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		c.ID, c.PrimaryEmail, c.PrimaryPhone, c.FirstName, c.LastName,
		c.Company, c.VIP, c.CreditRisk, c.ARBalance, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// FindIDsByPrimaryEmail ids de clientes con ese email primario (normalizado).
func (r *CustomerRepo) FindIDsByPrimaryEmail(email string) ([]int64, error) {
	return r.findIDs(`SELECT id FROM customers WHERE primary_email = $1 ORDER BY id`, email)
}

// FindIDsByPrimaryPhone ids de clientes con ese teléfono primario (normalizado).
func (r *CustomerRepo) FindIDsByPrimaryPhone(phone string) ([]int64, error) {
	return r.findIDs(`SELECT id FROM customers WHERE primary_phone = $1 ORDER BY id`, phone)
}

func (r *CustomerRepo) findIDs(query string, arg any) ([]int64, error) {
	rows, err := r.q.Query(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("find customer ids: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan customer id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LockByIDs bloquea las filas dadas con FOR UPDATE en orden ascendente de id
// (los merges concurrentes con clientes solapados se serializan sin deadlock)
// y devuelve los ids que existen. Solo tiene sentido dentro de una transacción.
func (r *CustomerRepo) LockByIDs(ids []int64) ([]int64, error) {
	query := `SELECT id FROM customers WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock customers: %w", err)
	}
	defer rows.Close()
	var locked []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan locked id: %w", err)
		}
		locked = append(locked, id)
	}
	return locked, rows.Err()
}

// Delete elimina la fila del cliente. Solo el merge la invoca, dentro de su
// transacción, con todas las dependencias ya re-apuntadas.
func (r *CustomerRepo) Delete(id int64) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
