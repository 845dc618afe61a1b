package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/taskdock/taskdock/internal/domain"
)

// newRoot creates a canonical temp directory to use as a sandbox root.
// t.TempDir can sit behind a symlink (e.g. /tmp on macOS), so it is
// canonicalized up front to keep string comparisons meaningful.
func newRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("canonicalize temp dir: %v", err)
	}
	return root
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveAcceptsContainedFile(t *testing.T) {
	root := newRoot(t)
	file := filepath.Join(root, "out", "report.html")
	writeFile(t, file)

	sb := New("", root)
	p, err := sb.Resolve(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != file {
		t.Fatalf("expected %q, got %q", file, p.String())
	}
}

func TestResolveAcceptsRootItself(t *testing.T) {
	root := newRoot(t)
	sb := New("", root)

	p, err := sb.Resolve(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != root {
		t.Fatalf("expected %q, got %q", root, p.String())
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := newRoot(t)
	writeFile(t, filepath.Join(root, "out", "a.txt"))

	sb := New("", root)
	_, err := sb.Resolve(filepath.Join(root, "out", "..", "..", "etc", "passwd"))
	if !errors.Is(err, domain.ErrForbidden) && !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected Forbidden or NotFound, got %v", err)
	}

	// A traversal that lands on a real file outside the root must be Forbidden.
	outside := filepath.Join(filepath.Dir(root), "escape.txt")
	writeFile(t, outside)
	t.Cleanup(func() { _ = os.Remove(outside) })

	_, err = sb.Resolve(filepath.Join(root, "..", filepath.Base(outside)))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolveRejectsSiblingWithRootPrefix(t *testing.T) {
	// /srv/shared-evil must not pass a containment check for /srv/shared.
	parent := newRoot(t)
	root := filepath.Join(parent, "shared")
	evil := filepath.Join(parent, "shared-evil")
	writeFile(t, filepath.Join(root, "ok.txt"))
	writeFile(t, filepath.Join(evil, "no.txt"))

	sb := New("", root)
	if _, err := sb.Resolve(filepath.Join(evil, "no.txt")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := newRoot(t)
	outside := newRoot(t)
	secret := filepath.Join(outside, "secret.txt")
	writeFile(t, secret)

	link := filepath.Join(root, "innocent.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	sb := New("", root)
	_, err := sb.Resolve(link)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for symlink escape, got %v", err)
	}
}

func TestResolveNotFound(t *testing.T) {
	root := newRoot(t)
	sb := New("", root)

	_, err := sb.Resolve(filepath.Join(root, "missing.html"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveEmptyRootsRejects(t *testing.T) {
	root := newRoot(t)
	file := filepath.Join(root, "f.txt")
	writeFile(t, file)

	sb := New("")
	if _, err := sb.Resolve(file); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden with no roots, got %v", err)
	}
	if !sb.Misconfigured() {
		t.Fatal("expected Misconfigured with no roots")
	}
}

func TestResolveDropsMissingRoots(t *testing.T) {
	root := newRoot(t)
	file := filepath.Join(root, "f.txt")
	writeFile(t, file)

	sb := New("", filepath.Join(root, "does-not-exist"), root)
	if _, err := sb.Resolve(file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.Misconfigured() {
		t.Fatal("one existing root should not be misconfigured")
	}
}

func TestExpandHome(t *testing.T) {
	home := newRoot(t)
	file := filepath.Join(home, "docs", "r.html")
	writeFile(t, file)

	sb := New(home, "~/docs")
	p, err := sb.Resolve("~/docs/r.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != file {
		t.Fatalf("expected %q, got %q", file, p.String())
	}
}

func TestExpandHomeNoHomeIsLiteral(t *testing.T) {
	sb := New("")
	if got := sb.ExpandHome("~/docs"); got != "~/docs" {
		t.Fatalf("expected literal ~/docs, got %q", got)
	}
}
