// Package ipallow gates the analytics surface behind an allow-list of
// literal IP addresses and CIDR ranges.
package ipallow

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// List is a parsed allow-list. The zero value admits nobody.
type List struct {
	addrs    map[netip.Addr]struct{}
	prefixes []netip.Prefix
}

// Parse builds a List from entries, each either a literal address
// ("203.0.113.7") or a CIDR range ("10.0.0.0/8"). Blank entries are
// ignored; anything else is an error.
func Parse(entries []string) (*List, error) {
	l := &List{addrs: make(map[netip.Addr]struct{})}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR entry %q: %w", entry, err)
			}
			l.prefixes = append(l.prefixes, prefix)
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid address entry %q: %w", entry, err)
		}
		l.addrs[addr.Unmap()] = struct{}{}
	}

	return l, nil
}

// Contains reports whether ip matches a literal entry or falls inside a
// configured range.
func (l *List) Contains(ip netip.Addr) bool {
	if l == nil {
		return false
	}
	ip = ip.Unmap()

	if _, ok := l.addrs[ip]; ok {
		return true
	}
	for _, prefix := range l.prefixes {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// AllowsRequest resolves the request's client IP and checks it against
// the list.
func (l *List) AllowsRequest(r *http.Request) bool {
	ip, err := ClientIP(r)
	if err != nil {
		return false
	}
	return l.Contains(ip)
}

// ClientIP resolves the caller's address. The first X-Forwarded-For
// entry, when present, takes precedence over the direct connection
// address.
func ClientIP(r *http.Request) (netip.Addr, error) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		addr, err := netip.ParseAddr(first)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("invalid X-Forwarded-For address %q: %w", first, err)
		}
		return addr, nil
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid remote address %q: %w", host, err)
	}
	return addr, nil
}
