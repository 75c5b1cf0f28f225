package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	appidentity "github.com/jhoicas/Soporte-api/internal/application/identity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

var _ appidentity.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con
// repositorios atados a esa tx. Lo usa el motor de identidad para el alta
// (cliente + identidad de origen) y para el merge completo.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunIdentity transacción corta del alta de cliente (tier 5 del Resolver).
func (r *TxRunner) RunIdentity(ctx context.Context, fn func(
	customers repository.CustomerRepository,
	identities repository.CustomerIdentityRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCustomerRepository(tx), NewCustomerIdentityRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunMerge transacción del merge de clientes: bloqueo ordenado, re-apuntado
// de identidades y dependencias, y absorción, todo-o-nada.
func (r *TxRunner) RunMerge(ctx context.Context, fn func(
	customers repository.CustomerRepository,
	identities repository.CustomerIdentityRepository,
	relations repository.CustomerRelationsRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = fn(
		NewCustomerRepository(tx),
		NewCustomerIdentityRepository(tx),
		NewCustomerRelationsRepository(tx),
	)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
