// Package renderer defines the port for converting a sandboxed HTML source
// into a PDF sibling file.
package renderer

import (
	"context"

	"github.com/taskdock/taskdock/internal/sandbox"
)

// Renderer produces a PDF next to the HTML source (same directory and base
// name, extension replaced with .pdf) and returns the sandboxed result path.
// Implementations own the rendering engine's process lifecycle and must tear
// it down on every exit path. Engine, navigation, and write failures are all
// surfaced as domain.ErrRenderFailure with a human-readable cause; retries
// are a caller decision.
type Renderer interface {
	Render(ctx context.Context, source sandbox.Path) (sandbox.Path, error)
}
