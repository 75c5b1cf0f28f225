package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AmbiguousMatchResponse error 409 del motor de identidad: la observación
// coincide con varios clientes y debe resolverla un operador.
type AmbiguousMatchResponse struct {
	Code         string  `json:"code"`
	Message      string  `json:"message"`
	CandidateIDs []int64 `json:"candidate_ids"`
}
