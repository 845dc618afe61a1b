// Package sandbox resolves client-supplied paths and proves containment
// within an administrator-configured allow-list of root directories.
// Every file-touching operation in the service accepts only sandbox.Path
// values, so the containment check cannot be bypassed by a caller holding
// a raw string.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskdock/taskdock/internal/domain"
)

// Path is a canonical, symlink-free filesystem path proven to lie inside
// one of the sandbox roots. It can only be constructed by Resolve.
type Path struct {
	p string
}

// String returns the canonical path.
func (p Path) String() string { return p.p }

// IsZero reports whether p was never resolved.
func (p Path) IsZero() bool { return p.p == "" }

// Dir returns the canonical path's parent directory.
func (p Path) Dir() string { return filepath.Dir(p.p) }

// Base returns the canonical path's final element.
func (p Path) Base() string { return filepath.Base(p.p) }

// Sandbox verifies containment of resolved paths within configured roots.
// It is stateless apart from its configuration; resolution reads the
// filesystem but never writes.
type Sandbox struct {
	home  string
	roots []string
}

// New creates a Sandbox with the given home directory (used for ~ expansion;
// may be empty) and configured roots. Roots are canonicalized lazily at
// resolve time so that directories created after startup are honored.
func New(home string, roots ...string) *Sandbox {
	s := &Sandbox{home: home}
	for _, r := range roots {
		if r == "" {
			continue
		}
		s.roots = append(s.roots, r)
	}
	return s
}

// Resolve expands, normalizes, and canonicalizes raw, then verifies the
// result is contained in one of the sandbox roots.
//
// Failure modes: domain.ErrNotFound when the path does not exist (no
// containment claim is made about non-existent paths), domain.ErrForbidden
// when the canonical path escapes every effective root. Symlinks are
// resolved before the containment check, so a link pointing outside a root
// is rejected even when its own location is inside.
func (s *Sandbox) Resolve(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("resolve: empty path: %w", domain.ErrInvalidInput)
	}

	expanded := s.ExpandHome(raw)

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return Path{}, fmt.Errorf("resolve %s: %w", raw, domain.ErrInvalidInput)
	}

	if _, err := os.Lstat(abs); err != nil {
		if os.IsNotExist(err) {
			return Path{}, fmt.Errorf("resolve %s: %w", raw, domain.ErrNotFound)
		}
		return Path{}, fmt.Errorf("resolve %s: %w", raw, err)
	}

	// Mandatory: defeats symlink escapes from an otherwise-contained path.
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return Path{}, fmt.Errorf("resolve %s: %w", raw, domain.ErrNotFound)
		}
		return Path{}, fmt.Errorf("resolve %s: %w", raw, err)
	}

	for _, root := range s.effectiveRoots() {
		if canonical == root || strings.HasPrefix(canonical, root+string(filepath.Separator)) {
			return Path{p: canonical}, nil
		}
	}
	return Path{}, fmt.Errorf("resolve %s: %w", raw, domain.ErrForbidden)
}

// ExpandHome replaces a leading ~ with the configured home directory.
// When no home is configured the shorthand is left literal; this is a
// deliberate fallback, not an error.
func (s *Sandbox) ExpandHome(path string) string {
	if s.home == "" {
		return path
	}
	if path == "~" {
		return s.home
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		return filepath.Join(s.home, path[2:])
	}
	return path
}

// effectiveRoots canonicalizes every configured root, dropping those that do
// not exist on disk. An empty result means every resolution is rejected.
func (s *Sandbox) effectiveRoots() []string {
	var out []string
	for _, r := range s.roots {
		abs, err := filepath.Abs(s.ExpandHome(r))
		if err != nil {
			continue
		}
		canonical, err := filepath.EvalSymlinks(abs)
		if err != nil {
			continue
		}
		out = append(out, canonical)
	}
	return out
}

// Misconfigured reports whether none of the configured roots exist on disk.
// Deployments should treat this as a startup error.
func (s *Sandbox) Misconfigured() bool {
	return len(s.effectiveRoots()) == 0
}
