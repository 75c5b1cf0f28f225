package repository

import "github.com/jhoicas/Soporte-api/internal/domain/entity"

// UserRepository puerto de persistencia de usuarios (agentes).
type UserRepository interface {
	Create(user *entity.User) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(id string) (*entity.User, error)
	// FindByEmail devuelve (nil, nil) si no existe.
	FindByEmail(email string) (*entity.User, error)
}
