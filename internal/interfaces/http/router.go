package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Soporte-api/internal/application/auth"
	"github.com/jhoicas/Soporte-api/internal/application/crm"
	appidentity "github.com/jhoicas/Soporte-api/internal/application/identity"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver   *appidentity.Resolver
	MergeSvc   *appidentity.MergeService
	CustomerUC *crm.CustomerUseCase
	TicketUC   *crm.TicketUseCase
	AuthUC     *auth.AuthUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Motor de identidad (protegido): lo llaman los jobs de sincronización
	// y la captura manual de observaciones.
	identityGroup := protected.Group("/identity")
	identityHandler := NewIdentityHandler(deps.Resolver)
	identityGroup.Post("/resolve", identityHandler.Resolve)

	// Clientes (protegido). El merge es destructivo: solo admin y manager.
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC, deps.MergeSvc)
	customers.Get("/", customerHandler.List)
	customers.Post("/merge", RequireRole(entity.RoleAdmin, entity.RoleManager), customerHandler.Merge)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Get("/:id/merge-candidates", RequireRole(entity.RoleAdmin, entity.RoleManager), customerHandler.MergeCandidates)

	// Tickets (protegido)
	tickets := protected.Group("/tickets")
	ticketHandler := NewTicketHandler(deps.TicketUC)
	tickets.Post("/", ticketHandler.Create)
	tickets.Get("/", ticketHandler.List)
	tickets.Get("/:id", ticketHandler.GetByID)
	tickets.Post("/:id/comments", ticketHandler.AddComment)
	tickets.Patch("/:id/status", ticketHandler.UpdateStatus)
}
