package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Límites del listado de lotes.
const (
	DefaultListTop = 200
	MaxListTop     = 1000
)

// ListRequest parámetros del listado (top = cantidad máxima de cabeceras).
// Un top negativo o cero no es error: Normalize lo lleva al valor por defecto.
type ListRequest struct {
	Top int `query:"top"`
}

// Normalize aplica el valor por defecto y el tope máximo.
func (r *ListRequest) Normalize() {
	if r.Top <= 0 {
		r.Top = DefaultListTop
	}
	if r.Top > MaxListTop {
		r.Top = MaxListTop
	}
}
