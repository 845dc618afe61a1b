package hostopen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/sandbox"
)

func sandboxedFile(t *testing.T) sandbox.Path {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("canonicalize temp dir: %v", err)
	}
	file := filepath.Join(root, "doc.pdf")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := sandbox.New("", root).Resolve(file)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return p
}

func TestRevealUnknownPlatformUnsupported(t *testing.T) {
	r := &Revealer{goos: "plan9"}
	err := r.Reveal(context.Background(), sandboxedFile(t))
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestRevealHeadlessLinuxUnsupported(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	r := &Revealer{goos: "linux"}
	err := r.Reveal(context.Background(), sandboxedFile(t))
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestRevealDarwinSelectsFile(t *testing.T) {
	r := &Revealer{goos: "darwin"}
	p := sandboxedFile(t)

	bin, args, err := r.command(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bin != "open" || len(args) != 2 || args[0] != "-R" || args[1] != p.String() {
		t.Fatalf("unexpected command: %s %v", bin, args)
	}
}
