// Package uri builds request URLs: it resolves local links against a base
// URL and appends query strings built from structured params.
package uri

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adamwoolhether/httpdriver/format"
)

var schemePrefix = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.\-]*://`)

// Builder creates URLs relative to Base.
type Builder struct {
	Base string
}

// New returns a Builder that resolves local links against base.
func New(base string) *Builder {
	return &Builder{Base: base}
}

// IsAbsolute reports whether resource carries a scheme prefix.
func IsAbsolute(resource string) bool {
	return schemePrefix.MatchString(resource)
}

// Create resolves resource against the Builder's base when it has no scheme
// and appends params as a query string. params may be anything
// [format.FromAny] accepts, or a raw string or []byte query.
func (b *Builder) Create(resource string, params any) (string, error) {
	if !IsAbsolute(resource) && b != nil && b.Base != "" {
		resource = strings.TrimRight(b.Base, "/") + "/" + strings.TrimLeft(resource, "/")
	}

	var q string
	switch p := params.(type) {
	case string:
		q = strings.TrimPrefix(p, "?")
	case []byte:
		q = strings.TrimPrefix(string(p), "?")
	default:
		m, ok, err := format.FromAny(params)
		if err != nil {
			return "", fmt.Errorf("query params: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("query params: unsupported type %T", params)
		}
		q = BuildQuery(m)
	}

	return AppendQuery(resource, q), nil
}

// AppendQuery adds q to resource, merging with any existing query and
// keeping a trailing fragment in place.
func AppendQuery(resource, q string) string {
	if q == "" {
		return resource
	}

	base, fragment, hasFragment := strings.Cut(resource, "#")

	sep := "?"
	switch {
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		sep = ""
	case strings.Contains(base, "?"):
		sep = "&"
	}

	out := base + sep + q
	if hasFragment {
		out += "#" + fragment
	}

	return out
}
