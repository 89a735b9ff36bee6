package validation

import (
	"net/mail"
	"strings"
)

// NormalizeEmail baja a minúsculas y recorta espacios. Es la forma canónica
// usada como clave de rate limiting y de búsqueda de usuarios.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail reduce un email a una forma segura para logs: primera letra del
// usuario y del dominio, resto elidido.
func MaskEmail(s string) string {
	s = NormalizeEmail(s)
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// ValidEmail retorna true si el email (ya normalizado o no) es parseable
// como dirección RFC 5322 simple, sin display name.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Rechazar "Name <a@b>" y variantes con display name
	return addr.Address == email
}
