package entity

import "time"

// Roles de usuario del sistema de soporte.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgente  = "agente"
)

// User usuario interno (agente de soporte) con credenciales.
type User struct {
	ID           string // uuid
	Email        string
	PasswordHash string
	Name         string
	Role         string // admin | manager | agente
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
