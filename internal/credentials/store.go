// Package credentials supplies API keys to discovery providers. Absence of
// a key is never an error: providers route to their pattern-generation
// fallback instead.
package credentials

import (
	"os"
	"strings"
)

// Well-known credential names consumed by discovery providers.
const (
	KeyPageSpeed      = "pagespeed"
	KeyCustomSearch   = "custom_search_key"
	KeyCustomSearchCX = "custom_search_cx"
	KeyYelp           = "yelp"
	KeyPlaces         = "places"
	KeyHunter         = "hunter"
)

// Store is an externally supplied key-value lookup. Implementations must be
// safe for concurrent reads.
type Store interface {
	// Get returns the credential value, or "" when not configured.
	Get(name string) string
	// Has reports whether a non-empty credential is configured.
	Has(name string) bool
}

// Static is a fixed in-memory store, used by tests and for flag-provided
// keys.
type Static map[string]string

func (s Static) Get(name string) string {
	return s[name]
}

func (s Static) Has(name string) bool {
	return s[name] != ""
}

// Env reads credentials from SITEAUDIT_API_* environment variables.
type Env struct {
	prefix string
}

// NewEnv returns an environment-backed store with the default prefix.
func NewEnv() *Env {
	return &Env{prefix: "SITEAUDIT_API_"}
}

func (e *Env) Get(name string) string {
	return os.Getenv(e.prefix + strings.ToUpper(name))
}

func (e *Env) Has(name string) bool {
	return e.Get(name) != ""
}

// Layered consults stores in order and returns the first hit. Environment
// variables override the encrypted file store when both are configured.
type Layered []Store

func (l Layered) Get(name string) string {
	for _, s := range l {
		if v := s.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func (l Layered) Has(name string) bool {
	return l.Get(name) != ""
}
