// Package code genera y verifica los códigos numéricos de un solo uso del
// login local. La estrategia (random o fija) se elige por configuración al
// arrancar, no por request.
package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Generator produce un código numérico de N dígitos.
type Generator interface {
	Generate() (string, error)
}

// ErrInvalidDigits se retorna cuando se pide un largo de código inválido.
var ErrInvalidDigits = fmt.Errorf("code: digits must be >= 1")

// RandomGenerator genera códigos con crypto/rand, uniformes en
// [10^(digits-1), 10^digits - 1]. El rango garantiza exactamente digits
// caracteres sin pérdida de ceros a la izquierda.
type RandomGenerator struct {
	digits int
}

// NewRandomGenerator crea un generador aleatorio de digits dígitos.
func NewRandomGenerator(digits int) (*RandomGenerator, error) {
	if digits < 1 {
		return nil, ErrInvalidDigits
	}
	return &RandomGenerator{digits: digits}, nil
}

func (g *RandomGenerator) Generate() (string, error) {
	// low = 10^(d-1), span = 9 * 10^(d-1)
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.digits-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("code: rand: %w", err)
	}
	return n.Add(n, low).String(), nil
}

// FixedGenerator repite una secuencia fija de dígitos truncada al largo
// pedido. Solo para entornos no productivos: hace los tests deterministas.
type FixedGenerator struct {
	digits int
	seed   string
}

// NewFixedGenerator crea un generador determinista a partir de seed.
// Si seed está vacío usa "0123456789".
func NewFixedGenerator(digits int, seed string) (*FixedGenerator, error) {
	if digits < 1 {
		return nil, ErrInvalidDigits
	}
	if seed == "" {
		seed = "0123456789"
	}
	for _, r := range seed {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("code: seed must contain only digits")
		}
	}
	return &FixedGenerator{digits: digits, seed: seed}, nil
}

func (g *FixedGenerator) Generate() (string, error) {
	repeats := g.digits/len(g.seed) + 1
	return strings.Repeat(g.seed, repeats)[:g.digits], nil
}

// Hash calcula el bcrypt del código para persistir. El código en claro nunca
// se guarda.
func Hash(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("code: hash: %w", err)
	}
	return string(h), nil
}

// Check compara un código contra su hash. bcrypt hace la comparación segura
// contra timing.
func Check(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
