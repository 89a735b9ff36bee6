package code_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/security/code"
)

func TestRandomGenerator_LengthAndDigits(t *testing.T) {
	for _, digits := range []int{1, 4, 6, 10} {
		g, err := code.NewRandomGenerator(digits)
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			c, err := g.Generate()
			require.NoError(t, err)
			require.Len(t, c, digits, "digits=%d got %q", digits, c)
			for _, r := range c {
				require.True(t, r >= '0' && r <= '9', "non-digit in %q", c)
			}
			// Nunca empieza en cero: el rango arranca en 10^(d-1)
			if digits > 1 {
				require.NotEqual(t, byte('0'), c[0])
			}
		}
	}
}

func TestRandomGenerator_InvalidDigits(t *testing.T) {
	_, err := code.NewRandomGenerator(0)
	require.ErrorIs(t, err, code.ErrInvalidDigits)

	_, err = code.NewRandomGenerator(-3)
	require.ErrorIs(t, err, code.ErrInvalidDigits)
}

func TestFixedGenerator_Deterministic(t *testing.T) {
	g, err := code.NewFixedGenerator(6, "123456")
	require.NoError(t, err)

	first, err := g.Generate()
	require.NoError(t, err)
	require.Equal(t, "123456", first)

	second, err := g.Generate()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFixedGenerator_SeedShorterThanDigits(t *testing.T) {
	g, err := code.NewFixedGenerator(7, "12")
	require.NoError(t, err)

	c, err := g.Generate()
	require.NoError(t, err)
	require.Equal(t, "1212121", c)
}

func TestFixedGenerator_DefaultSeed(t *testing.T) {
	g, err := code.NewFixedGenerator(4, "")
	require.NoError(t, err)

	c, err := g.Generate()
	require.NoError(t, err)
	require.Equal(t, "0123", c)
}

func TestFixedGenerator_RejectsNonDigitSeed(t *testing.T) {
	_, err := code.NewFixedGenerator(6, "12ab34")
	require.Error(t, err)
}

func TestFixedGenerator_InvalidDigits(t *testing.T) {
	_, err := code.NewFixedGenerator(0, "1234")
	require.ErrorIs(t, err, code.ErrInvalidDigits)
}

func TestHashCheck_RoundTrip(t *testing.T) {
	h, err := code.Hash("482913")
	require.NoError(t, err)
	require.NotEqual(t, "482913", h)

	require.True(t, code.Check(h, "482913"))
	require.False(t, code.Check(h, "482914"))
	require.False(t, code.Check(h, ""))
	require.False(t, code.Check("not-a-hash", "482913"))
}
