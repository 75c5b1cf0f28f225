package identity

import (
	"context"

	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// identidad: el alta de cliente+identidad y el merge completo son
// todo-o-nada.
type TxRunner interface {
	// RunIdentity transacción corta para el alta (tier 5): cliente + identidad
	// de origen. Si el INSERT de la identidad viola la unicidad
	// (provider, external_id), todo se revierte y el error llega al Resolver.
	RunIdentity(ctx context.Context, fn func(
		customers repository.CustomerRepository,
		identities repository.CustomerIdentityRepository,
	) error) error

	// RunMerge transacción del merge: bloqueo ordenado de filas, re-apuntado
	// de todas las dependencias y absorción del duplicado.
	RunMerge(ctx context.Context, fn func(
		customers repository.CustomerRepository,
		identities repository.CustomerIdentityRepository,
		relations repository.CustomerRelationsRepository,
	) error) error
}
