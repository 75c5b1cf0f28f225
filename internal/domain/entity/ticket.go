package entity

import "time"

// Estados de un ticket de soporte.
const (
	TicketOpen    = "open"
	TicketPending = "pending"
	TicketClosed  = "closed"
)

// Ticket caso de soporte ligado a un cliente canónico.
type Ticket struct {
	ID         int64
	CustomerID int64
	Subject    string
	Status     string
	Channel    string // email, web, phone
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TicketComment comentario dentro de un ticket.
type TicketComment struct {
	ID        int64
	TicketID  int64
	AuthorID  *string // uuid del agente; nil si lo escribió el cliente
	Body      string
	Direction string // inbound | outbound
	CreatedAt time.Time
}
