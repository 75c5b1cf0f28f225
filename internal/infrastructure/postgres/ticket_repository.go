package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

var _ repository.TicketRepository = (*TicketRepo)(nil)

// TicketRepo implementación de TicketRepository (pool o tx).
type TicketRepo struct {
	q Querier
}

// NewTicketRepository construye el adaptador.
func NewTicketRepository(q Querier) *TicketRepo {
	return &TicketRepo{q: q}
}

const ticketColumns = `id, customer_id, subject, status, channel, created_at, updated_at`

func scanTicket(row pgx.Row) (*entity.Ticket, error) {
	var t entity.Ticket
	err := row.Scan(&t.ID, &t.CustomerID, &t.Subject, &t.Status, &t.Channel, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste un ticket y asigna su ID.
func (r *TicketRepo) Create(t *entity.Ticket) error {
	query := `
		INSERT INTO tickets (customer_id, subject, status, channel, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		t.CustomerID, t.Subject, t.Status, t.Channel, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetByID obtiene un ticket. Devuelve (nil, nil) si no existe.
func (r *TicketRepo) GetByID(id int64) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	t, err := scanTicket(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// List tickets más recientes primero, con paginación.
func (r *TicketRepo) List(limit, offset int) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY id DESC LIMIT $1 OFFSET $2`
	return r.queryTickets(query, limit, offset)
}

// ListByCustomer tickets de un cliente, más recientes primero.
func (r *TicketRepo) ListByCustomer(customerID int64, limit, offset int) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE customer_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	return r.queryTickets(query, customerID, limit, offset)
}

func (r *TicketRepo) queryTickets(query string, args ...any) ([]*entity.Ticket, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	var list []*entity.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update actualiza asunto/estado del ticket.
func (r *TicketRepo) Update(t *entity.Ticket) error {
	query := `UPDATE tickets SET subject = $2, status = $3, updated_at = $4 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, t.ID, t.Subject, t.Status, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

// CreateComment persiste un comentario y asigna su ID.
func (r *TicketRepo) CreateComment(c *entity.TicketComment) error {
	query := `
		INSERT INTO ticket_comments (ticket_id, author_id, body, direction, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		c.TicketID, c.AuthorID, c.Body, c.Direction, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments comentarios de un ticket en orden cronológico.
func (r *TicketRepo) ListComments(ticketID int64) ([]*entity.TicketComment, error) {
	query := `
		SELECT id, ticket_id, author_id, body, direction, created_at
		FROM ticket_comments WHERE ticket_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var list []*entity.TicketComment
	for rows.Next() {
		var c entity.TicketComment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.Direction, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
