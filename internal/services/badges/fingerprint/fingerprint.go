// Package fingerprint derives cache keys and entity tags
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"tokeisrv/internal/services/badges/domain"

	"golang.org/x/text/unicode/norm"
)

// DefaultBranch stands in for an absent branch inside keys
// git ref names cannot contain '~' so it never collides with a real branch
const DefaultBranch = "~default"

// Normalize trims every component to NFC, lowercases the host and expands a dotless host to .com
func Normalize(c domain.Coordinate) domain.Coordinate {
	return domain.Coordinate{
		Host:   NormalizeHost(c.Host),
		Owner:  NormalizeSegment(c.Owner),
		Name:   NormalizeSegment(c.Name),
		Branch: NormalizeSegment(c.Branch),
	}
}

// NormalizeHost is the host form coordinates and host whitelists are compared in
func NormalizeHost(s string) string {
	host := strings.ToLower(NormalizeSegment(s))
	if host != "" && !strings.Contains(host, ".") {
		host += ".com"
	}
	return host
}

// NormalizeSegment composes decomposed runes so visually equal segments share a key, case is kept
func NormalizeSegment(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }

// DeriveKey maps a coordinate to its cache key
// components are path-escaped before joining so distinct coordinates never collide
func DeriveKey(c domain.Coordinate) domain.CacheKey {
	c = Normalize(c)
	branch := DefaultBranch
	if c.Branch != "" {
		branch = url.PathEscape(c.Branch)
	}
	return domain.CacheKey(strings.Join([]string{
		url.PathEscape(c.Host),
		url.PathEscape(c.Owner),
		url.PathEscape(c.Name),
		branch,
	}, "/"))
}

// Hash is the hex sha256 of the key, stored on records for diagnostics
func Hash(key domain.CacheKey) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// CanonicalOptions serializes the options that affect output, zero values are omitted
// Types are folded to lower case and sorted so their order in the query does not matter
func CanonicalOptions(o domain.Options) string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("category", string(o.Category))
	set("label", o.Label)
	set("style", o.Style)
	set("color", o.Color)
	set("logo", o.Logo)
	if len(o.Types) > 0 {
		types := make([]string, 0, len(o.Types))
		for _, t := range o.Types {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				types = append(types, t)
			}
		}
		slices.Sort(types)
		set("type", strings.Join(slices.Compact(types), ","))
	}
	if o.ShowLanguage {
		v.Set("show_language", "true")
		v.Set("language_rank", strconv.Itoa(o.LanguageRank))
	}
	set("format", string(o.Format))
	return v.Encode()
}

// DeriveEtagSeed combines the scanned commit with the rendering options
func DeriveEtagSeed(rec domain.StatsRecord, o domain.Options) string {
	return rec.CommitID + "#" + CanonicalOptions(o)
}

// ETag is the quoted strong entity tag for a record rendered with o
func ETag(rec domain.StatsRecord, o domain.Options) string {
	sum := sha256.Sum256([]byte(DeriveEtagSeed(rec, o)))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Matches reports whether a client If-None-Match value names etag
// the header may hold a comma separated list and weak W/ prefixes; '*' never matches
func Matches(etag, header string) bool {
	if etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, cand := range strings.Split(header, ",") {
		cand = strings.TrimPrefix(strings.TrimSpace(cand), "W/")
		if cand != "" && cand == want {
			return true
		}
	}
	return false
}
