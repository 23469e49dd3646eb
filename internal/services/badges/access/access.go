// Package access holds the whitelist gate evaluated before any cache or network work
package access

import (
	"strings"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/fingerprint"
)

// Reason names why a coordinate was denied
type Reason string

// Reasons
const (
	ReasonNone             Reason = ""
	ReasonUserNotWhitelist Reason = "user-not-whitelisted"
	ReasonHostNotWhitelist Reason = "host-not-whitelisted"
)

// Decision is the outcome of a Check
type Decision struct {
	Allowed bool
	Reason  Reason
}

// WhitelistSet holds allowed tokens, an empty set allows everything
type WhitelistSet struct {
	members map[string]struct{}
}

// NewWhitelist trims tokens and drops empty ones; matching stays case-sensitive
func NewWhitelist(tokens []string) WhitelistSet {
	ws := WhitelistSet{}
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if ws.members == nil {
			ws.members = make(map[string]struct{}, len(tokens))
		}
		ws.members[t] = struct{}{}
	}
	return ws
}

// Empty reports whether the set allows everything
func (w WhitelistSet) Empty() bool { return len(w.members) == 0 }

// Len is the number of members
func (w WhitelistSet) Len() int { return len(w.members) }

// Allows is an exact membership test; an empty set allows any token
func (w WhitelistSet) Allows(token string) bool {
	if w.Empty() {
		return true
	}
	_, ok := w.members[token]
	return ok
}

// Gate evaluates the user and host whitelists, it is immutable and safe for concurrent use
type Gate struct {
	users WhitelistSet
	hosts WhitelistSet
}

// NewGate builds a gate from raw whitelist tokens
// tokens take the same normalized form as request coordinates, so GitHub and github.com name one host
func NewGate(users, hosts []string) Gate {
	return Gate{
		users: NewWhitelist(mapTokens(users, fingerprint.NormalizeSegment)),
		hosts: NewWhitelist(mapTokens(hosts, fingerprint.NormalizeHost)),
	}
}

func mapTokens(in []string, fn func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, fn(t))
	}
	return out
}

// FromConfig builds the gate from the service config
func FromConfig(cfg domain.Config) Gate {
	return NewGate(cfg.UserWhitelist, cfg.HostWhitelist)
}

// Check applies the user whitelist first, then the host whitelist
// c must already be normalized
func (g Gate) Check(c domain.Coordinate) Decision {
	if !g.users.Allows(c.Owner) {
		return Decision{Reason: ReasonUserNotWhitelist}
	}
	if !g.hosts.Allows(c.Host) {
		return Decision{Reason: ReasonHostNotWhitelist}
	}
	return Decision{Allowed: true}
}

// Err converts a denial into a Forbidden error, nil when allowed
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return perr.WithOp(perr.Forbiddenf("%s", d.Reason), "access.check")
}
