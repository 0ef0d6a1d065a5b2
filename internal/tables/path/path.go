// Package path normalizes reference addresses into absolute registry paths.
package path

import (
	"errors"
	"strings"
)

// ErrEscapesRoot indicates a relative path climbs above the registry root.
var ErrEscapesRoot = errors.New("path escapes registry root")

// ErrEmpty indicates an empty reference path.
var ErrEmpty = errors.New("path is empty")

// Resolver resolves raw reference paths against a registry root.
type Resolver struct {
	// Root is the registry root substituted for "$". Defaults to "/".
	Root string
}

// Resolve normalizes raw into an absolute path. Paths starting with "$/" are
// root-relative, paths starting with "." are relative to the directory that
// contains from, and anything else is joined onto the root.
//
// The result never holds ".", ".." or "$" segments, so resolving an already
// resolved path returns it unchanged.
func (r Resolver) Resolve(raw, from string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}

	var joined string
	switch {
	case raw == "$" || strings.HasPrefix(raw, "$/"):
		joined = r.root() + "/" + strings.TrimPrefix(raw, "$")
	case strings.HasPrefix(raw, "."):
		joined = Dir(from) + "/" + raw
	case r.within(raw):
		joined = raw
	default:
		joined = r.root() + "/" + raw
	}
	floor := 0
	if r.within(joined) {
		floor = r.depth()
	}
	return normalize(joined, floor)
}

// Resolve normalizes raw against the default "/" root.
func Resolve(raw, from string) (string, error) {
	return Resolver{}.Resolve(raw, from)
}

func (r Resolver) root() string {
	root := strings.TrimSpace(r.Root)
	if root == "" {
		return "/"
	}
	return root
}

// depth counts the segments of the root; ".." may not climb past them.
func (r Resolver) depth() int {
	root, err := normalize(r.root(), 0)
	if err != nil || root == "/" {
		return 0
	}
	return strings.Count(root, "/")
}

// within reports whether raw already sits under a non-default root.
func (r Resolver) within(raw string) bool {
	root := strings.TrimRight(r.root(), "/")
	return root != "" && (raw == root || strings.HasPrefix(raw, root+"/"))
}

// Dir returns the parent directory of an absolute path.
func Dir(p string) string {
	p = strings.TrimRight(p, "/")
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// normalize collapses duplicate slashes and dot segments. The first floor
// segments are fixed: a ".." that would remove one escapes the root. Every
// segment is visited once, so malformed input cannot loop.
func normalize(p string, floor int) (string, error) {
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
		case "..":
			if len(out) <= floor {
				return "", ErrEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}
