// Package ipmatch decide si una IP de origen está permitida por la
// allow-list de un access token (IPs sueltas o rangos CIDR, v4 y v6).
package ipmatch

import (
	"fmt"
	"net/netip"
	"strings"
)

// ValidateEntry verifica que una entrada de allow-list sea una IP o un
// rango CIDR válidos. Útil al momento de emitir un token, antes de que una
// entrada malformada empiece a denegar todos sus requests.
func ValidateEntry(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("ipmatch: empty entry")
	}
	if strings.Contains(entry, "/") {
		if _, err := netip.ParsePrefix(entry); err != nil {
			return fmt.Errorf("ipmatch: invalid cidr entry %q: %w", entry, err)
		}
		return nil
	}
	if _, err := netip.ParseAddr(entry); err != nil {
		return fmt.Errorf("ipmatch: invalid ip entry %q: %w", entry, err)
	}
	return nil
}

// Allowed retorna true si ip matchea al menos una entrada (OR lógico).
// Una lista nil o vacía permite todo. Entradas: "10.0.0.0/8" o "192.168.1.5".
// Retorna error si ip o alguna entrada no parsea.
func Allowed(ip string, entries []string) (bool, error) {
	if len(entries) == 0 {
		return true, nil
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false, fmt.Errorf("ipmatch: invalid source ip %q: %w", ip, err)
	}
	// Normalizar v4-mapped para que "::ffff:10.1.2.3" matchee rangos v4
	addr = addr.Unmap()

	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			pfx, err := netip.ParsePrefix(e)
			if err != nil {
				return false, fmt.Errorf("ipmatch: invalid cidr entry %q: %w", e, err)
			}
			if pfx.Contains(addr) {
				return true, nil
			}
			continue
		}
		single, err := netip.ParseAddr(e)
		if err != nil {
			return false, fmt.Errorf("ipmatch: invalid ip entry %q: %w", e, err)
		}
		if single.Unmap() == addr {
			return true, nil
		}
	}
	return false, nil
}
