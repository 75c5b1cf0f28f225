package dto

// AddressRequest dirección postal tal como llega del proveedor o del formulario.
type AddressRequest struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ResolveRequest body para POST /api/identity/resolve: una observación de
// identidad de un proveedor.
type ResolveRequest struct {
	Provider   string            `json:"provider"`
	ExternalID string            `json:"external_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Company    string            `json:"company,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Address    *AddressRequest   `json:"address,omitempty"`
}

// ResolutionResponse resultado de una resolución no ambigua.
type ResolutionResponse struct {
	Customer  CustomerResponse `json:"customer"`
	MatchedBy string           `json:"matched_by"` // external_id|email|phone|address_hash|none
	IsNew     bool             `json:"is_new"`
}

// MergeCandidateResponse posible duplicado en el reporte de merge.
type MergeCandidateResponse struct {
	CustomerID int64    `json:"customer_id"`
	MatchedOn  []string `json:"matched_on"` // email | phone
	Name       string   `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
}

// MergeRequest body para POST /api/customers/merge. Los nombres de campo son
// el contrato con el frontend de la cola de revisión.
type MergeRequest struct {
	PrimaryCustomerID int64   `json:"primaryCustomerId"`
	MergeCustomerIDs  []int64 `json:"mergeCustomerIds"`
}

// MergeResponse resultado del merge: cuántos clientes fueron absorbidos.
type MergeResponse struct {
	MergedCount int `json:"mergedCount"`
}
