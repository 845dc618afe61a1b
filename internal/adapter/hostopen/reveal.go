// Package hostopen surfaces files in the host's native file browser.
// The capability depends on a local desktop environment; headless
// deployments report domain.ErrUnsupported and callers treat that as a
// soft notice, not a system error.
package hostopen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/sandbox"
)

// Revealer asks the host environment to show a file's location.
type Revealer struct {
	goos string
	run  func(ctx context.Context, bin string, args ...string) error
}

// New creates a Revealer for the current host.
func New() *Revealer {
	return &Revealer{goos: runtime.GOOS, run: runCommand}
}

// Reveal opens the host file browser with the given file selected where the
// platform supports selection, or its containing directory otherwise.
func (r *Revealer) Reveal(ctx context.Context, path sandbox.Path) error {
	bin, args, err := r.command(path)
	if err != nil {
		return err
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("reveal: %s not available: %w", bin, domain.ErrUnsupported)
	}
	if err := r.run(ctx, bin, args...); err != nil {
		return fmt.Errorf("reveal %s: %v: %w", path.String(), err, domain.ErrUnsupported)
	}
	return nil
}

func (r *Revealer) command(path sandbox.Path) (bin string, args []string, err error) {
	switch r.goos {
	case "darwin":
		return "open", []string{"-R", path.String()}, nil
	case "windows":
		return "explorer", []string{"/select," + path.String()}, nil
	case "linux":
		// Without a display server there is nothing to reveal into.
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return "", nil, fmt.Errorf("reveal: no display server: %w", domain.ErrUnsupported)
		}
		return "xdg-open", []string{path.Dir()}, nil
	default:
		return "", nil, fmt.Errorf("reveal: %s: %w", r.goos, domain.ErrUnsupported)
	}
}

func runCommand(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // G204: bin is a fixed platform binary, args are sandboxed paths

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}
