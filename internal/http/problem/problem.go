// Package problem implementa errores de aplicación renderizados como
// RFC 9457 Problem Details (application/problem+json).
package problem

import (
	"fmt"
	"net/http"
)

// Problem define el error estándar de la aplicación. Los campos exportados
// siguen RFC 9457; Err es la causa interna (solo logs, nunca al cliente).
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Err    error  `json:"-"`
}

// Error implementa la interfaz error.
func (p *Problem) Error() string {
	if p.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", p.Status, p.Title, p.Err)
	}
	return fmt.Sprintf("[%d] %s", p.Status, p.Title)
}

// Unwrap permite acceder a la causa.
func (p *Problem) Unwrap() error {
	return p.Err
}

// WithDetail retorna una COPIA con detalle adicional (no muta las vars base).
func (p *Problem) WithDetail(detail string) *Problem {
	np := *p
	np.Detail = detail
	return &np
}

// WithCause retorna una COPIA con la causa adjunta.
func (p *Problem) WithCause(err error) *Problem {
	np := *p
	np.Err = err
	return &np
}

// New crea un Problem nuevo.
func New(status int, typ, title string) *Problem {
	return &Problem{Type: typ, Title: title, Status: status}
}

// FromError convierte un error genérico en *Problem. Si no lo es, devuelve
// un error interno genérico conservando la causa.
func FromError(err error) *Problem {
	if p, ok := err.(*Problem); ok {
		return p
	}
	return ErrInternal.WithCause(err)
}

// =================================================================================
// PROBLEMS PREDEFINIDOS
// =================================================================================

var (
	ErrBadRequest = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/bad-request",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	ErrInvalidJSON = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/invalid-json",
		Title:  "Request body is not valid JSON",
		Status: http.StatusBadRequest,
	}

	ErrMissingFields = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/missing-fields",
		Title:  "Required fields are missing",
		Status: http.StatusBadRequest,
	}

	ErrValidation = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/validation",
		Title:  "Validation failed",
		Status: http.StatusUnprocessableEntity,
	}

	// ErrUnauthenticated es la respuesta genérica para TODA falla de
	// autenticación bearer. La razón específica queda en contexto/logs,
	// nunca en el body (no filtrar por qué falló).
	ErrUnauthenticated = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/unauthenticated",
		Title:  "Unauthenticated",
		Status: http.StatusUnauthorized,
	}

	ErrForbidden = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/forbidden",
		Title:  "Forbidden",
		Status: http.StatusForbidden,
	}

	ErrNotFound = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/not-found",
		Title:  "Resource not found",
		Status: http.StatusNotFound,
	}

	ErrConflict = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/conflict",
		Title:  "Conflict",
		Status: http.StatusConflict,
	}

	ErrRateLimited = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/rate-limited",
		Title:  "Too many requests",
		Status: http.StatusTooManyRequests,
	}

	ErrInternal = &Problem{
		Type:   "https://authgate.northwestern.edu/problems/internal",
		Title:  "Internal server error",
		Status: http.StatusInternalServerError,
	}
)
