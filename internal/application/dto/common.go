package dto

// Límites de paginación de los listados.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// PageRequest paginación leída del query string (?limit=&offset=). Limit cero significa
// "sin indicar" y toma DefaultPageLimit.
type PageRequest struct {
	Limit  int `query:"limit" json:"limit" validate:"min=0,max=500"`
	Offset int `query:"offset" json:"offset" validate:"min=0"`
}

// Normalize completa el límite por defecto. Se llama después de validar.
func (p *PageRequest) Normalize() {
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
}

// Page metadatos de la página efectiva.
func (p PageRequest) Page() PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset}
}

// PageResponse metadatos de página devueltos junto a los items.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP: código estable más mensaje legible.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
