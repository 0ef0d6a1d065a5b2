package table

import (
	"sort"

	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/tables/path"
)

// Registry maps resolved paths to definitions. It is populated before any
// resolution starts and only read afterwards.
type Registry struct {
	resolver path.Resolver
	defs     map[string]Definition
}

// NewRegistry returns an empty registry rooted at root ("/" when empty).
func NewRegistry(root string) *Registry {
	return &Registry{
		resolver: path.Resolver{Root: root},
		defs:     map[string]Definition{},
	}
}

// Add registers def under p, normalized against the registry root.
func (r *Registry) Add(p string, def Definition) error {
	resolved, err := r.resolver.Resolve(p, "/")
	if err != nil {
		return invalidPath(p, err)
	}
	r.defs[resolved] = def
	return nil
}

// Resolve normalizes raw relative to the definition at from.
func (r *Registry) Resolve(raw, from string) (string, error) {
	resolved, err := r.resolver.Resolve(raw, from)
	if err != nil {
		return "", invalidPath(raw, err)
	}
	return resolved, nil
}

// Lookup returns the definition registered under a resolved path.
func (r *Registry) Lookup(resolved string) (Definition, bool) {
	def, ok := r.defs[resolved]
	return def, ok
}

// Paths returns all registered paths in sorted order.
func (r *Registry) Paths() []string {
	out := make([]string, 0, len(r.defs))
	for p := range r.defs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

func invalidPath(raw string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeInvalidPath, "resolve "+raw, map[string]string{"Path": raw}, err)
}
