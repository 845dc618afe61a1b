// Package chromium implements the renderer port by driving a headless
// Chromium process to convert HTML deliverables into PDF siblings.
package chromium

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/taskdock/taskdock/internal/config"
	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/domain/deliverable"
	"github.com/taskdock/taskdock/internal/resilience"
	"github.com/taskdock/taskdock/internal/sandbox"
)

// A broken engine install fails every spawn the same way. The breaker stops
// the spawn churn after a few consecutive failures.
const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// runFunc executes the rendering engine binary. Tests substitute a fake to
// verify process-invocation counts without a real browser.
type runFunc func(ctx context.Context, bin string, args ...string) error

// Renderer converts sandboxed HTML files into sibling PDFs with a headless
// Chromium process per render call. The engine process is a scoped resource:
// acquired per call, killed on timeout or cancellation, never reused.
type Renderer struct {
	bin     string
	timeout time.Duration
	sem     *semaphore.Weighted
	sb      *sandbox.Sandbox
	breaker *resilience.Breaker
	run     runFunc
}

// New creates a Renderer from config. The semaphore caps concurrent engine
// processes; renders for different sources may still run in parallel up to
// that cap.
func New(cfg config.Render, sb *sandbox.Sandbox) *Renderer {
	limit := cfg.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	return &Renderer{
		bin:     cfg.ChromiumPath,
		timeout: cfg.Timeout,
		sem:     semaphore.NewWeighted(int64(limit)),
		sb:      sb,
		breaker: resilience.NewBreaker(breakerThreshold, breakerCooldown),
		run:     runChromium,
	}
}

// Render produces source with its extension replaced by .pdf, in the same
// directory. The source must carry an HTML extension; anything else is
// rejected before any process is spawned. The produced path is re-validated
// through the sandbox before being returned; the derived path cannot
// introduce traversal, but the check guards against a malformed engine.
func (r *Renderer) Render(ctx context.Context, source sandbox.Path) (sandbox.Path, error) {
	src := source.String()
	if !deliverable.IsHTML(src) {
		return sandbox.Path{}, fmt.Errorf("render %s: not an HTML document: %w", src, domain.ErrInvalidInput)
	}
	dest := strings.TrimSuffix(src, filepath.Ext(src)) + ".pdf"

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return sandbox.Path{}, fmt.Errorf("render %s: %w", src, err)
	}
	defer r.sem.Release(1)

	// The deadline doubles as the process kill switch: exec.CommandContext
	// terminates the engine when the context expires.
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-pdf-header-footer",
		"--virtual-time-budget=10000", // let the document and its requests settle
		"--print-to-pdf=" + dest,
		"file://" + src,
	}
	err := r.breaker.Execute(func() error {
		return r.run(ctx, r.bin, args...)
	})
	if err != nil {
		return sandbox.Path{}, fmt.Errorf("render %s: %v: %w", src, err, domain.ErrRenderFailure)
	}

	if _, err := os.Stat(dest); err != nil {
		return sandbox.Path{}, fmt.Errorf("render %s: engine produced no output: %w", src, domain.ErrRenderFailure)
	}

	rendered, err := r.sb.Resolve(dest)
	if err != nil {
		return sandbox.Path{}, fmt.Errorf("render %s: output escaped sandbox: %v: %w", src, err, domain.ErrRenderFailure)
	}
	return rendered, nil
}

// runChromium executes the engine binary and folds stderr into the error.
func runChromium(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // G204: bin comes from deployment config, args from sandboxed paths

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("engine timed out: %w", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return err
		}
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}
