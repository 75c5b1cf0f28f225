package repository

// CustomerRelationsRepository re-apunta las filas dependientes de un cliente
// durante un merge. La lista de tablas vive en el adaptador de Postgres como
// checklist única: añadir una tabla con FK a customers implica añadirla ahí.
type CustomerRelationsRepository interface {
	// RepointAll mueve todas las filas con FK de fromCustomerID a toCustomerID
	// y devuelve el total de filas afectadas.
	RepointAll(fromCustomerID, toCustomerID int64) (int64, error)
}
