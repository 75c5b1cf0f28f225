package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

var _ repository.InteractionRepository = (*InteractionRepo)(nil)

// InteractionRepo implementación de InteractionRepository (pool o tx).
type InteractionRepo struct {
	q Querier
}

// NewInteractionRepository construye el adaptador.
func NewInteractionRepository(q Querier) *InteractionRepo {
	return &InteractionRepo{q: q}
}

// Create persiste una interacción (solo escritura).
func (r *InteractionRepo) Create(i *entity.Interaction) error {
	query := `
		INSERT INTO interactions (id, customer_id, ticket_id, comment_id, direction, channel, summary, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		i.ID, i.CustomerID, i.TicketID, i.CommentID, i.Direction, i.Channel, i.Summary, i.OccurredAt, i.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}
