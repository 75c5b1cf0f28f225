package repository

import "github.com/jhoicas/Soporte-api/internal/domain/entity"

// CustomerRepository puerto de persistencia del cliente canónico.
type CustomerRepository interface {
	// Create persiste el cliente y asigna su ID.
	Create(customer *entity.Customer) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(id int64) (*entity.Customer, error)
	List(limit, offset int) ([]*entity.Customer, error)
	// Update sobreescribe los campos mutables (primarios, VIP, riesgo, cartera).
	Update(customer *entity.Customer) error
	// FindIDsByPrimaryEmail ids de clientes cuyo email primario coincide (ya normalizado).
	FindIDsByPrimaryEmail(email string) ([]int64, error)
	// FindIDsByPrimaryPhone ids de clientes cuyo teléfono primario coincide (ya normalizado).
	FindIDsByPrimaryPhone(phone string) ([]int64, error)
	// LockByIDs bloquea las filas (FOR UPDATE) en orden ascendente de id y
	// devuelve los ids encontrados. Solo tiene sentido dentro de una transacción.
	LockByIDs(ids []int64) ([]int64, error)
	// Delete elimina la fila. Solo el merge la invoca, dentro de su transacción,
	// después de re-apuntar todas las dependencias.
	Delete(id int64) error
}
