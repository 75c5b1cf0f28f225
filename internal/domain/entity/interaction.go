package entity

import "time"

// Direcciones de una interacción.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Interaction registro de un contacto con el cliente (email, llamada, nota).
// Solo escritura: nunca participa en la resolución de identidad.
type Interaction struct {
	ID         string // uuid
	CustomerID int64
	TicketID   *int64
	CommentID  *int64
	Direction  string // inbound | outbound
	Channel    string // email, phone, web, note
	Summary    string
	OccurredAt time.Time
	CreatedAt  time.Time
}
