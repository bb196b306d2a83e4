package apiclient

import "strings"

// APIPrefix marks request targets that are rebound to the configured origin.
const APIPrefix = "/api"

// Resolver rewrites "/api" targets onto a fixed base origin.
// The zero value has no base and leaves every target unchanged.
type Resolver struct {
	base string
}

// NewResolver strips a single trailing slash from rawBase.
func NewResolver(rawBase string) Resolver {
	return Resolver{base: strings.TrimSuffix(strings.TrimSpace(rawBase), "/")}
}

// Base returns the configured origin, or "" when none is set.
func (r Resolver) Base() string { return r.base }

// Configured reports whether a base origin is set.
func (r Resolver) Configured() bool { return r.base != "" }

// Resolve returns base+target when target starts with "/api" and a base is
// configured, and target unchanged otherwise.
func (r Resolver) Resolve(target string) string {
	if r.base == "" || !strings.HasPrefix(target, APIPrefix) {
		return target
	}
	return r.base + target
}
