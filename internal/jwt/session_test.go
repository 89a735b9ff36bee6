package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtx "github.com/nu-its/authgate/internal/jwt"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	i := jwtx.NewIssuer([]byte("secret"), "authgate", time.Hour)

	tok, exp, err := i.Issue("user-1", "jdoe@northwestern.edu")
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := i.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "jdoe@northwestern.edu", claims.Email)
	require.Equal(t, "authgate", claims.Issuer)
}

func TestParse_WrongSecret(t *testing.T) {
	i := jwtx.NewIssuer([]byte("secret"), "authgate", time.Hour)
	tok, _, err := i.Issue("user-1", "a@nu.edu")
	require.NoError(t, err)

	other := jwtx.NewIssuer([]byte("other-secret"), "authgate", time.Hour)
	_, err = other.Parse(tok)
	require.Error(t, err)
}

func TestParse_WrongIssuer(t *testing.T) {
	i := jwtx.NewIssuer([]byte("secret"), "authgate", time.Hour)
	tok, _, err := i.Issue("user-1", "a@nu.edu")
	require.NoError(t, err)

	other := jwtx.NewIssuer([]byte("secret"), "someone-else", time.Hour)
	_, err = other.Parse(tok)
	require.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	i := &jwtx.Issuer{Secret: []byte("secret"), Iss: "authgate", TTL: -time.Minute}
	tok, _, err := i.Issue("user-1", "a@nu.edu")
	require.NoError(t, err)

	_, err = i.Parse(tok)
	require.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	i := jwtx.NewIssuer([]byte("secret"), "authgate", time.Hour)
	_, err := i.Parse("not.a.jwt")
	require.Error(t, err)
}

func TestNewIssuer_ZeroTTLDefaults(t *testing.T) {
	i := jwtx.NewIssuer([]byte("secret"), "authgate", 0)
	require.Equal(t, time.Hour, i.TTL)
}
