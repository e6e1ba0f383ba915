// Package profile implements the DNS profile registry: named, ordered sets
// of DNS server addresses, seeded with well-known public resolvers and
// persisted as a JSON document.
package profile

import (
	"net/netip"
	"strings"

	liberrors "dnsjumper/pkg/errors"
)

// Source identifies who created a profile.
type Source string

const (
	SourceUser    Source = "user"
	SourceBuiltIn Source = "builtin"
)

// Profile is a named, ordered set of DNS server addresses.
type Profile struct {
	Name    string   `json:"name"`
	Servers []string `json:"servers"`
	Source  Source   `json:"-"`
}

// builtins are the seeded public resolver profiles. They cannot be removed,
// only hidden. Order here is the order they list in.
var builtins = []Profile{
	{Name: "Google", Servers: []string{"8.8.8.8", "8.8.4.4"}, Source: SourceBuiltIn},
	{Name: "Cloudflare", Servers: []string{"1.1.1.1", "1.0.0.1"}, Source: SourceBuiltIn},
	{Name: "Quad9", Servers: []string{"9.9.9.9", "149.112.112.112"}, Source: SourceBuiltIn},
	{Name: "OpenDNS", Servers: []string{"208.67.222.222", "208.67.220.220"}, Source: SourceBuiltIn},
}

// BuiltIns returns a copy of the seeded profiles.
func BuiltIns() []Profile {
	out := make([]Profile, len(builtins))
	copy(out, builtins)
	return out
}

// Validate checks that the profile has a name, at least one server, no
// duplicate servers, and that every server is an IPv4/IPv6 literal.
// It performs no I/O.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return liberrors.ErrEmptyName
	}
	if len(p.Servers) == 0 {
		return &liberrors.ProfileError{Name: p.Name, Err: liberrors.ErrEmptyProfile}
	}
	seen := make(map[string]bool, len(p.Servers))
	for _, s := range p.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return &liberrors.ValidationError{Address: s}
		}
		key := addr.String()
		if seen[key] {
			return &liberrors.ValidationError{Address: s, Reason: "duplicate server in profile"}
		}
		seen[key] = true
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate store-owned state.
func (p Profile) clone() Profile {
	servers := make([]string, len(p.Servers))
	copy(servers, p.Servers)
	p.Servers = servers
	return p
}
