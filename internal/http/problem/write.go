package problem

import (
	"encoding/json"
	"net/http"
)

// Write escribe la respuesta HTTP para el error dado. Acepta tanto *Problem
// como errores genéricos (que colapsan a 500 sin detalle de la causa).
func Write(w http.ResponseWriter, err error) {
	p := FromError(err)

	w.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
