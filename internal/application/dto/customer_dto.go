package dto

import "github.com/shopspring/decimal"

// CustomerResponse cliente canónico en respuestas.
type CustomerResponse struct {
	ID           int64           `json:"id"`
	PrimaryEmail *string         `json:"primary_email,omitempty"`
	PrimaryPhone *string         `json:"primary_phone,omitempty"`
	FirstName    *string         `json:"first_name,omitempty"`
	LastName     *string         `json:"last_name,omitempty"`
	Company      *string         `json:"company,omitempty"`
	VIP          bool            `json:"vip"`
	CreditRisk   string          `json:"credit_risk"`
	ARBalance    decimal.Decimal `json:"ar_balance"`
}

// IdentityResponse identidad observada en respuestas.
type IdentityResponse struct {
	ID         int64             `json:"id"`
	Provider   string            `json:"provider"`
	ExternalID *string           `json:"external_id,omitempty"`
	Email      *string           `json:"email,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// CustomerDetailResponse cliente con sus identidades para GET /api/customers/:id.
type CustomerDetailResponse struct {
	CustomerResponse
	Identities []IdentityResponse `json:"identities"`
}
