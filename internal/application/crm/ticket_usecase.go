package crm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Soporte-api/internal/application/dto"
	appidentity "github.com/jhoicas/Soporte-api/internal/application/identity"
	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
	"github.com/jhoicas/Soporte-api/pkg/logger"
)

// TicketUseCase casos de uso de tickets de soporte. Todo ticket entrante pasa
// por el motor de identidad: el solicitante se liga al cliente canónico,
// exista ya o no, y el contacto queda registrado como interacción.
type TicketUseCase struct {
	tickets      repository.TicketRepository
	interactions repository.InteractionRepository
	resolver     *appidentity.Resolver
	log          *logger.Logger
}

// NewTicketUseCase construye el caso de uso de tickets.
func NewTicketUseCase(
	tickets repository.TicketRepository,
	interactions repository.InteractionRepository,
	resolver *appidentity.Resolver,
	log *logger.Logger,
) *TicketUseCase {
	return &TicketUseCase{tickets: tickets, interactions: interactions, resolver: resolver, log: log}
}

// CreateTicket resuelve la identidad del solicitante y abre el ticket contra
// el cliente canónico. Si la observación es ambigua devuelve
// domain.ErrAmbiguousMatch y no crea nada.
func (uc *TicketUseCase) CreateTicket(ctx context.Context, in dto.CreateTicketRequest) (*dto.TicketResponse, error) {
	if in.Subject == "" {
		return nil, domain.ErrInvalidInput
	}
	channel := in.Channel
	if channel == "" {
		channel = "web"
	}
	obs := appidentity.Observation{
		Provider:  entity.ProviderSelfReported,
		Email:     in.Email,
		Phone:     in.Phone,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Company:   in.Company,
	}
	customer, err := uc.resolver.ResolveOrCreate(ctx, obs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ticket := &entity.Ticket{
		CustomerID: customer.ID,
		Subject:    in.Subject,
		Status:     entity.TicketOpen,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.tickets.Create(ticket); err != nil {
		return nil, err
	}
	if in.Body != "" {
		comment := &entity.TicketComment{
			TicketID:  ticket.ID,
			Body:      in.Body,
			Direction: entity.DirectionInbound,
			CreatedAt: now,
		}
		if err := uc.tickets.CreateComment(comment); err != nil {
			return nil, err
		}
	}
	uc.logInteraction(customer.ID, ticket.ID, nil, entity.DirectionInbound, channel, "ticket abierto: "+in.Subject)

	uc.log.Info().
		Int64("ticket_id", ticket.ID).
		Int64("customer_id", customer.ID).
		Msg("ticket creado")
	return toTicketResponse(ticket), nil
}

// GetTicket devuelve el ticket con sus comentarios, o ErrNotFound.
func (uc *TicketUseCase) GetTicket(id int64) (*dto.TicketDetailResponse, error) {
	ticket, err := uc.tickets.GetByID(id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.ErrNotFound
	}
	comments, err := uc.tickets.ListComments(id)
	if err != nil {
		return nil, err
	}
	out := &dto.TicketDetailResponse{TicketResponse: *toTicketResponse(ticket)}
	for _, c := range comments {
		out.Comments = append(out.Comments, toCommentResponse(c))
	}
	return out, nil
}

// ListTickets lista tickets paginados, opcionalmente filtrados por cliente.
func (uc *TicketUseCase) ListTickets(customerID int64, page dto.PageRequest) ([]dto.TicketResponse, error) {
	page.DefaultPage()
	var (
		tickets []*entity.Ticket
		err     error
	)
	if customerID > 0 {
		tickets, err = uc.tickets.ListByCustomer(customerID, page.Limit, page.Offset)
	} else {
		tickets, err = uc.tickets.List(page.Limit, page.Offset)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, *toTicketResponse(t))
	}
	return out, nil
}

// AddComment añade un comentario al ticket y registra la interacción.
// authorID es el uuid del agente autenticado; vacío para comentarios del cliente.
func (uc *TicketUseCase) AddComment(ticketID int64, authorID string, in dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if in.Body == "" {
		return nil, domain.ErrInvalidInput
	}
	ticket, err := uc.tickets.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.ErrNotFound
	}
	direction := in.Direction
	if direction == "" {
		direction = entity.DirectionOutbound
	}
	if direction != entity.DirectionInbound && direction != entity.DirectionOutbound {
		return nil, domain.ErrInvalidInput
	}
	comment := &entity.TicketComment{
		TicketID:  ticketID,
		Body:      in.Body,
		Direction: direction,
		CreatedAt: time.Now(),
	}
	if authorID != "" {
		comment.AuthorID = &authorID
	}
	if err := uc.tickets.CreateComment(comment); err != nil {
		return nil, err
	}
	uc.logInteraction(ticket.CustomerID, ticketID, &comment.ID, direction, ticket.Channel, "comentario en ticket")

	resp := toCommentResponse(comment)
	return &resp, nil
}

// UpdateStatus cambia el estado del ticket (open, pending, closed).
func (uc *TicketUseCase) UpdateStatus(ticketID int64, status string) (*dto.TicketResponse, error) {
	switch status {
	case entity.TicketOpen, entity.TicketPending, entity.TicketClosed:
	default:
		return nil, domain.ErrInvalidInput
	}
	ticket, err := uc.tickets.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.ErrNotFound
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now()
	if err := uc.tickets.Update(ticket); err != nil {
		return nil, err
	}
	return toTicketResponse(ticket), nil
}

// logInteraction registra el contacto sin interrumpir la operación principal:
// un fallo en el log de interacciones se reporta y se sigue.
func (uc *TicketUseCase) logInteraction(customerID, ticketID int64, commentID *int64, direction, channel, summary string) {
	now := time.Now()
	it := &entity.Interaction{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		TicketID:   &ticketID,
		CommentID:  commentID,
		Direction:  direction,
		Channel:    channel,
		Summary:    summary,
		OccurredAt: now,
		CreatedAt:  now,
	}
	if err := uc.interactions.Create(it); err != nil {
		uc.log.Error().Err(err).Int64("customer_id", customerID).Msg("no se pudo registrar la interacción")
	}
}

func toTicketResponse(t *entity.Ticket) *dto.TicketResponse {
	return &dto.TicketResponse{
		ID:         t.ID,
		CustomerID: t.CustomerID,
		Subject:    t.Subject,
		Status:     t.Status,
		Channel:    t.Channel,
		CreatedAt:  t.CreatedAt,
	}
}

func toCommentResponse(c *entity.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		Direction: c.Direction,
		CreatedAt: c.CreatedAt,
	}
}
