package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Niveles de riesgo crediticio sincronizados desde el sistema contable.
const (
	CreditRiskNone   = "none"
	CreditRiskWatch  = "watch"
	CreditRiskBlocked = "blocked"
)

// Customer es el cliente canónico: una sola fila por persona real, sin importar
// desde cuántos proveedores (tienda, contabilidad, marketplace...) haya llegado.
// Los campos primarios son punteros: nil significa "aún no observado". Una vez
// fijados, solo el merge explícito puede sobreescribirlos.
type Customer struct {
	ID           int64
	PrimaryEmail *string // siempre normalizado (minúsculas)
	PrimaryPhone *string // siempre normalizado (tipo E.164)
	FirstName    *string
	LastName     *string
	Company      *string
	VIP          bool
	CreditRisk   string
	ARBalance    decimal.Decimal // cartera pendiente (cuentas por cobrar)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName nombre presentable para UI y logs.
func (c *Customer) DisplayName() string {
	switch {
	case c.FirstName != nil && c.LastName != nil:
		return *c.FirstName + " " + *c.LastName
	case c.FirstName != nil:
		return *c.FirstName
	case c.Company != nil:
		return *c.Company
	case c.PrimaryEmail != nil:
		return *c.PrimaryEmail
	default:
		return ""
	}
}
