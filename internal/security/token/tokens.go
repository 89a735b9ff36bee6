package tokens

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// PrefixLen es el largo del fragmento visible del token (para listados).
const PrefixLen = 8

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HMACSHA256Base64URL devuelve hmac-sha256(key, input) en base64url sin
// padding. Es lo único que se persiste de un token: el valor crudo se
// descarta apenas se calcula el hash.
func HMACSHA256Base64URL(key []byte, s string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(s))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Prefix retorna el fragmento de display de un token crudo.
func Prefix(raw string) string {
	if len(raw) <= PrefixLen {
		return raw
	}
	return raw[:PrefixLen]
}
