package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

var _ repository.CustomerRelationsRepository = (*CustomerRelationsRepo)(nil)

// repointTables checklist de TODAS las tablas con FK a customers que el merge
// debe re-apuntar. Añadir una tabla nueva con customer_id implica añadirla
// aquí: si falta una, el merge deja filas colgando del cliente absorbido.
var repointTables = []string{
	"orders",
	"tickets",
	"ticket_comments",
	"interactions",
	"contacts",
	"calls",
	"opportunities",
	"crm_tasks",
}

// CustomerRelationsRepo re-apunta filas dependientes durante un merge.
// Siempre se usa atado a la transacción del merge, nunca sobre el pool.
type CustomerRelationsRepo struct {
	q Querier
}

// NewCustomerRelationsRepository construye el adaptador. Pasar la tx del merge.
func NewCustomerRelationsRepository(q Querier) *CustomerRelationsRepo {
	return &CustomerRelationsRepo{q: q}
}

// RepointAll mueve todas las filas dependientes de un cliente a otro y
// devuelve el total de filas afectadas.
func (r *CustomerRelationsRepo) RepointAll(fromCustomerID, toCustomerID int64) (int64, error) {
	var total int64
	for _, table := range repointTables {
		query := fmt.Sprintf(`UPDATE %s SET customer_id = $2 WHERE customer_id = $1`, table)
		tag, err := r.q.Exec(context.Background(), query, fromCustomerID, toCustomerID)
		if err != nil {
			return 0, fmt.Errorf("repoint %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}
