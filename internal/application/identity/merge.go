package identity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
	"github.com/jhoicas/Soporte-api/pkg/logger"
)

// MergeCandidate posible duplicado de un cliente, con los campos que lo delatan.
type MergeCandidate struct {
	CustomerID int64
	MatchedOn  []string // email | phone
	Name       string
	Email      *string
	Phone      *string
}

// MergeResult resultado de un merge: cuántos clientes fueron absorbidos.
// Todo-o-nada: nunca hay merges parciales.
type MergeResult struct {
	MergedCount int
}

// MergeService coordina los merges manuales. Ambas operaciones son SIEMPRE
// explícitas, disparadas por un operador; nada en el sistema hace merge
// automático.
type MergeService struct {
	customers  repository.CustomerRepository
	identities repository.CustomerIdentityRepository
	tx         TxRunner
	log        *logger.Logger
}

// NewMergeService construye el coordinador de merges.
func NewMergeService(
	customers repository.CustomerRepository,
	identities repository.CustomerIdentityRepository,
	tx TxRunner,
	log *logger.Logger,
) *MergeService {
	return &MergeService{customers: customers, identities: identities, tx: tx, log: log}
}

// ListMergeCandidates reporte de solo lectura: otros clientes que comparten el
// email o teléfono primario del cliente dado. Reusa la misma igualdad exacta
// de los tiers 2/3 del Resolver, pero aquí no se decide nada.
func (s *MergeService) ListMergeCandidates(customerID int64) ([]MergeCandidate, error) {
	customer, err := s.customers.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("cliente %d: %w", customerID, domain.ErrNotFound)
	}

	matchedOn := map[int64][]string{}
	if customer.PrimaryEmail != nil {
		ids, err := s.candidateIDsByEmail(*customer.PrimaryEmail)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if id != customerID {
				matchedOn[id] = append(matchedOn[id], "email")
			}
		}
	}
	if customer.PrimaryPhone != nil {
		ids, err := s.candidateIDsByPhone(*customer.PrimaryPhone)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if id != customerID {
				matchedOn[id] = append(matchedOn[id], "phone")
			}
		}
	}

	ids := make([]int64, 0, len(matchedOn))
	for id := range matchedOn {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	candidates := make([]MergeCandidate, 0, len(ids))
	for _, id := range ids {
		c, err := s.customers.GetByID(id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		candidates = append(candidates, MergeCandidate{
			CustomerID: id,
			MatchedOn:  matchedOn[id],
			Name:       c.DisplayName(),
			Email:      c.PrimaryEmail,
			Phone:      c.PrimaryPhone,
		})
	}
	return candidates, nil
}

func (s *MergeService) candidateIDsByEmail(email string) ([]int64, error) {
	primaries, err := s.customers.FindIDsByPrimaryEmail(email)
	if err != nil {
		return nil, err
	}
	owners, err := s.identities.FindCustomerIDsByEmail(email)
	if err != nil {
		return nil, err
	}
	return unionIDs(primaries, owners), nil
}

func (s *MergeService) candidateIDsByPhone(phone string) ([]int64, error) {
	primaries, err := s.customers.FindIDsByPrimaryPhone(phone)
	if err != nil {
		return nil, err
	}
	owners, err := s.identities.FindCustomerIDsByPhone(phone)
	if err != nil {
		return nil, err
	}
	return unionIDs(primaries, owners), nil
}

// MergeCustomers absorbe cada cliente de mergeIDs dentro de primaryID en UNA
// transacción: re-apunta identidades y todas las filas dependientes, completa
// los primarios vacíos del primario (misma regla nulo-solamente del
// enriquecimiento), suma la cartera y elimina la fila absorbida. Un merge
// parcial (pedidos movidos pero tickets no) es un fallo de integridad, no un
// éxito parcial: cualquier error revierte todo.
func (s *MergeService) MergeCustomers(ctx context.Context, primaryID int64, mergeIDs []int64) (*MergeResult, error) {
	if primaryID <= 0 || len(mergeIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	mergeIDs = dedupeIDs(mergeIDs)
	for _, id := range mergeIDs {
		if id <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if id == primaryID {
			return nil, fmt.Errorf("el cliente primario no puede estar en la lista de merge: %w", domain.ErrInvalidInput)
		}
	}

	// Verificación de existencia antes de abrir la transacción: un id que no
	// existe aquí es un 404 del caller. Si la fila desaparece entre esta
	// lectura y el bloqueo, fue un merge concurrente (ver abajo).
	for _, id := range append([]int64{primaryID}, mergeIDs...) {
		c, err := s.customers.GetByID(id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("cliente %d: %w", id, domain.ErrNotFound)
		}
	}

	merged := 0
	err := s.tx.RunMerge(ctx, func(
		customers repository.CustomerRepository,
		identities repository.CustomerIdentityRepository,
		relations repository.CustomerRelationsRepository,
	) error {
		merged = 0

		// Bloqueo de todas las filas implicadas en orden ascendente de id:
		// merges concurrentes con clientes solapados se serializan sin deadlock.
		all := append([]int64{primaryID}, mergeIDs...)
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		locked, err := customers.LockByIDs(all)
		if err != nil {
			return err
		}
		// Todos existían antes de la transacción: si el bloqueo encuentra
		// menos filas, un merge concurrente absorbió alguna mientras
		// esperábamos. Se rechaza entero para que el operador re-evalúe
		// sobre el estado nuevo.
		if len(locked) != len(all) {
			return fmt.Errorf("un cliente fue absorbido por un merge concurrente: %w", domain.ErrConflict)
		}

		primary, err := customers.GetByID(primaryID)
		if err != nil {
			return err
		}

		for _, id := range mergeIDs {
			dup, err := customers.GetByID(id)
			if err != nil {
				return err
			}
			absorb(primary, dup)

			if err := identities.Repoint(id, primaryID); err != nil {
				return err
			}
			if _, err := relations.RepointAll(id, primaryID); err != nil {
				return err
			}
			if err := customers.Delete(id); err != nil {
				return err
			}
			merged++
		}

		primary.UpdatedAt = time.Now()
		return customers.Update(primary)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("primary_id", primaryID).
		Ints64("merged_ids", mergeIDs).
		Int("merged_count", merged).
		Msg("merge de clientes completado")
	return &MergeResult{MergedCount: merged}, nil
}

// absorb vuelca los datos del duplicado en el primario: primarios nulos se
// completan (nunca se pisan los existentes), VIP se conserva si cualquiera lo
// era, el riesgo crediticio escala al peor y la cartera se suma.
func absorb(primary, dup *entity.Customer) {
	fillIfNilFromPtr(&primary.PrimaryEmail, dup.PrimaryEmail)
	fillIfNilFromPtr(&primary.PrimaryPhone, dup.PrimaryPhone)
	fillIfNilFromPtr(&primary.FirstName, dup.FirstName)
	fillIfNilFromPtr(&primary.LastName, dup.LastName)
	fillIfNilFromPtr(&primary.Company, dup.Company)
	primary.VIP = primary.VIP || dup.VIP
	if creditRiskRank(dup.CreditRisk) > creditRiskRank(primary.CreditRisk) {
		primary.CreditRisk = dup.CreditRisk
	}
	primary.ARBalance = primary.ARBalance.Add(dup.ARBalance)
}

func fillIfNilFromPtr(dst **string, v *string) {
	if *dst == nil && v != nil {
		val := *v
		*dst = &val
	}
}

func creditRiskRank(risk string) int {
	switch risk {
	case entity.CreditRiskBlocked:
		return 2
	case entity.CreditRiskWatch:
		return 1
	default:
		return 0
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
