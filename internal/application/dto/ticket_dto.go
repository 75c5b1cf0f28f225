package dto

import "time"

// CreateTicketRequest body para POST /api/tickets. Los datos del solicitante
// pasan por el motor de identidad: el ticket siempre queda ligado al cliente
// canónico, exista ya o no.
type CreateTicketRequest struct {
	Subject   string `json:"subject"`
	Body      string `json:"body,omitempty"`
	Channel   string `json:"channel,omitempty"` // email, web, phone
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
}

// CreateCommentRequest body para POST /api/tickets/:id/comments.
type CreateCommentRequest struct {
	Body      string `json:"body"`
	Direction string `json:"direction,omitempty"` // inbound | outbound
}

// TicketResponse ticket en respuestas.
type TicketResponse struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	Channel    string    `json:"channel"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentResponse comentario en respuestas.
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  *string   `json:"author_id,omitempty"`
	Body      string    `json:"body"`
	Direction string    `json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetailResponse ticket con comentarios.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}
