package repository_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/domain/repository"
)

func TestCapUserAgent_ShortPassesThrough(t *testing.T) {
	ua := "Mozilla/5.0 (X11; Linux x86_64)"
	require.Equal(t, ua, repository.CapUserAgent(ua))
}

func TestCapUserAgent_ASCIICutsAtMax(t *testing.T) {
	ua := strings.Repeat("x", repository.MaxConsumedUserAgentLen+100)
	got := repository.CapUserAgent(ua)
	require.Len(t, got, repository.MaxConsumedUserAgentLen)
}

func TestCapUserAgent_DoesNotSplitMultibyteRune(t *testing.T) {
	// "é" ocupa 2 bytes y queda a caballo del límite: el corte debe
	// retroceder en vez de dejar un byte huérfano.
	ua := strings.Repeat("a", repository.MaxConsumedUserAgentLen-1) + "é"
	got := repository.CapUserAgent(ua)
	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got), repository.MaxConsumedUserAgentLen)
	require.Equal(t, strings.Repeat("a", repository.MaxConsumedUserAgentLen-1), got)
}

func TestCapUserAgent_MultibyteOnlyStaysValid(t *testing.T) {
	// 4 bytes por runa; 512 no es múltiplo exacto así que el corte cae
	// dentro de una runa.
	ua := strings.Repeat("🦊", 200)
	got := repository.CapUserAgent(ua)
	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got), repository.MaxConsumedUserAgentLen)
	require.NotEmpty(t, got)
}

func TestChallengeActive_LockBoundaryIsStrict(t *testing.T) {
	now := time.Now().UTC()
	lock := now
	c := &repository.LoginChallenge{
		ExpiresAt:   now.Add(time.Minute),
		LockedUntil: &lock,
	}
	// En el instante exacto del fin del lock sigue bloqueado.
	require.False(t, c.Active(now))
	require.True(t, c.Active(now.Add(time.Nanosecond)))
}
