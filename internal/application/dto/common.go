package dto

// ErrorResponse respuesta de error uniforme de la API.
// Los campos opcionales transportan datos de errores estructurados:
// Limit/Current para límites de plan, Remaining para sobrepagos.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Limit     *int   `json:"limit,omitempty"`
	Current   *int   `json:"current,omitempty"`
	Remaining string `json:"remaining,omitempty"`
}

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
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
