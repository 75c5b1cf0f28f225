package repository

import "github.com/jhoicas/Soporte-api/internal/domain/entity"

// InteractionRepository puerto del log de interacciones (solo escritura:
// las interacciones jamás participan en la resolución de identidad).
type InteractionRepository interface {
	Create(interaction *entity.Interaction) error
}
