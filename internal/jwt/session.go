// Package jwt emite y valida los session tokens de corta vida que reciben
// los usuarios locales tras verificar su código de login. HS256 con secreto
// compartido; sin estado en servidor.
package jwt

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// SessionClaims son las claims del session token.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	jwtv5.RegisteredClaims
}

// Issuer emite y parsea session tokens.
type Issuer struct {
	Secret []byte
	Iss    string
	TTL    time.Duration
}

// NewIssuer crea un Issuer. TTL cero usa 1 hora.
func NewIssuer(secret []byte, iss string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{Secret: secret, Iss: iss, TTL: ttl}
}

// Issue firma un session token para el usuario dado.
func (i *Issuer) Issue(userID, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.TTL)
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.Iss,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp, nil
}

// Parse valida firma, issuer y expiración, y retorna las claims.
func (i *Issuer) Parse(raw string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwtv5.ParseWithClaims(raw, &claims, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwt: unexpected signing method %v", t.Header["alg"])
		}
		return i.Secret, nil
	},
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
