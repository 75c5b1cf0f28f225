package repository

import "github.com/jhoicas/Soporte-api/internal/domain/entity"

// TicketRepository puerto de persistencia de tickets de soporte.
type TicketRepository interface {
	Create(ticket *entity.Ticket) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(id int64) (*entity.Ticket, error)
	List(limit, offset int) ([]*entity.Ticket, error)
	ListByCustomer(customerID int64, limit, offset int) ([]*entity.Ticket, error)
	Update(ticket *entity.Ticket) error
	CreateComment(comment *entity.TicketComment) error
	ListComments(ticketID int64) ([]*entity.TicketComment, error)
}
