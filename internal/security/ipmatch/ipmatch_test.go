package ipmatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/security/ipmatch"
)

func TestAllowed_EmptyListAllowsAll(t *testing.T) {
	ok, err := ipmatch.Allowed("203.0.113.7", nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ipmatch.Allowed("203.0.113.7", []string{})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllowed_MixedEntries(t *testing.T) {
	entries := []string{"10.0.0.0/8", "192.168.1.5"}

	cases := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},     // dentro del CIDR
		{"10.255.255.255", true},
		{"192.168.1.5", true},  // match exacto
		{"192.168.1.6", false}, // vecino, no listado
		{"8.8.8.8", false},     // fuera de todo
		{"11.0.0.1", false},    // justo fuera del /8
	}
	for _, tc := range cases {
		ok, err := ipmatch.Allowed(tc.ip, entries)
		require.NoError(t, err, "ip=%s", tc.ip)
		require.Equal(t, tc.want, ok, "ip=%s", tc.ip)
	}
}

func TestAllowed_IPv6(t *testing.T) {
	entries := []string{"2001:db8::/32", "::1"}

	ok, err := ipmatch.Allowed("2001:db8::42", entries)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ipmatch.Allowed("::1", entries)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ipmatch.Allowed("2001:db9::1", entries)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllowed_V4MappedV6MatchesV4Entries(t *testing.T) {
	ok, err := ipmatch.Allowed("::ffff:10.1.2.3", []string{"10.0.0.0/8"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllowed_InvalidSourceIP(t *testing.T) {
	_, err := ipmatch.Allowed("not-an-ip", []string{"10.0.0.0/8"})
	require.Error(t, err)

	_, err = ipmatch.Allowed("", []string{"10.0.0.0/8"})
	require.Error(t, err)
}

func TestAllowed_InvalidEntry(t *testing.T) {
	_, err := ipmatch.Allowed("10.1.2.3", []string{"10.0.0.0/99"})
	require.Error(t, err)

	_, err = ipmatch.Allowed("10.1.2.3", []string{"banana"})
	require.Error(t, err)
}

func TestAllowed_SkipsBlankEntries(t *testing.T) {
	ok, err := ipmatch.Allowed("192.168.1.5", []string{"", "  ", "192.168.1.5"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateEntry(t *testing.T) {
	require.NoError(t, ipmatch.ValidateEntry("10.0.0.0/8"))
	require.NoError(t, ipmatch.ValidateEntry("192.168.1.5"))
	require.NoError(t, ipmatch.ValidateEntry("2001:db8::/32"))

	require.Error(t, ipmatch.ValidateEntry(""))
	require.Error(t, ipmatch.ValidateEntry("10.0.0.0/99"))
	require.Error(t, ipmatch.ValidateEntry("banana"))
}
