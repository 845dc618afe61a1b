package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/domain/deliverable"
	"github.com/taskdock/taskdock/internal/port/cache"
	"github.com/taskdock/taskdock/internal/sandbox"
)

// Action names the operation a viewer wants to perform on a deliverable.
type Action string

const (
	ActionOpen      Action = "open"
	ActionPreview   Action = "preview"
	ActionReveal    Action = "reveal"
	ActionRenderPDF Action = "render_pdf"
)

// Viewer-facing endpoints the gateway hands out.
const (
	PreviewEndpoint  = "/api/v1/files/preview"
	DownloadEndpoint = "/api/v1/files/download"
	RevealEndpoint   = "/api/v1/files/reveal"
)

// Intent is the gateway's decision for a (deliverable, action) pair.
type Intent struct {
	// Kind is one of none, open_url, preview, download, reveal, render.
	Kind string `json:"kind"`
	// Target is the URL or endpoint the viewer should use.
	Target string `json:"target,omitempty"`
	// Fallback is the raw-download endpoint when Kind is preview; the
	// viewer falls back to it if the inline open fails.
	Fallback string `json:"fallback,omitempty"`
}

// PreviewService is the gateway a viewer negotiates with before touching
// any file content. Every file-touching decision funnels the raw path
// through the sandbox first.
type PreviewService struct {
	sb       *sandbox.Sandbox
	cache    cache.Cache
	probeTTL time.Duration
}

// NewPreviewService creates a PreviewService. cache may be nil to disable
// probe memoization.
func NewPreviewService(sb *sandbox.Sandbox, c cache.Cache, probeTTL time.Duration) *PreviewService {
	return &PreviewService{sb: sb, cache: c, probeTTL: probeTTL}
}

// Resolve sandboxes a raw client-supplied path. Exposed for the thin HTTP
// readers so they cannot touch disk with an unchecked string.
func (s *PreviewService) Resolve(raw string) (sandbox.Path, error) {
	return s.sb.Resolve(raw)
}

// Intent decides how a viewer should act on a deliverable. A deliverable
// without a path short-circuits every action as a no-op.
func (s *PreviewService) Intent(ctx context.Context, d *deliverable.Deliverable, action Action) (*Intent, error) {
	if d.Path == "" {
		return &Intent{Kind: "none"}, nil
	}

	switch d.Type {
	case deliverable.TypeURL:
		// External resource handle; never passed through the sandbox.
		switch action {
		case ActionOpen, ActionPreview:
			return &Intent{Kind: "open_url", Target: d.Path}, nil
		default:
			return nil, fmt.Errorf("action %s on url deliverable: %w", action, domain.ErrInvalidInput)
		}
	case deliverable.TypeArtifact:
		// Opaque handle; no path semantics.
		return &Intent{Kind: "none"}, nil
	case deliverable.TypeFile:
		return s.fileIntent(ctx, d, action)
	default:
		return nil, fmt.Errorf("deliverable type %q: %w", d.Type, domain.ErrInvalidInput)
	}
}

func (s *PreviewService) fileIntent(ctx context.Context, d *deliverable.Deliverable, action Action) (*Intent, error) {
	p, err := s.sb.Resolve(d.Path)
	if err != nil {
		return nil, err
	}

	previewURL := PreviewEndpoint + "?path=" + url.QueryEscape(d.Path)
	downloadURL := DownloadEndpoint + "?path=" + url.QueryEscape(d.Path)

	switch action {
	case ActionOpen:
		// Probe-then-fallback: binary artifacts are not usefully
		// previewable inline, but the viewer must always have some way
		// to retrieve the content.
		if s.Previewable(ctx, p) {
			return &Intent{Kind: "preview", Target: previewURL, Fallback: downloadURL}, nil
		}
		return &Intent{Kind: "download", Target: downloadURL}, nil
	case ActionPreview:
		// Known-good inline rendering, independent of the probe.
		return &Intent{Kind: "preview", Target: previewURL, Fallback: downloadURL}, nil
	case ActionReveal:
		return &Intent{Kind: "reveal", Target: RevealEndpoint}, nil
	case ActionRenderPDF:
		if !deliverable.IsHTML(d.Path) {
			return nil, fmt.Errorf("render requires an HTML document: %w", domain.ErrInvalidInput)
		}
		return &Intent{Kind: "render"}, nil
	default:
		return nil, fmt.Errorf("unknown action %q: %w", action, domain.ErrInvalidInput)
	}
}

// ContentType determines the MIME type of a sandboxed file: extension first,
// content sniffing as fallback. Results are memoized per canonical path.
func (s *PreviewService) ContentType(ctx context.Context, p sandbox.Path) string {
	key := "probe:" + p.String()
	if s.cache != nil {
		if v, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return string(v)
		}
	}

	ct := detectContentType(p)

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(ct), s.probeTTL)
	}
	return ct
}

// Previewable reports whether the file's content type is safe and useful to
// display inline.
func (s *PreviewService) Previewable(ctx context.Context, p sandbox.Path) bool {
	ct := s.ContentType(ctx, p)
	switch {
	case strings.HasPrefix(ct, "text/"),
		strings.HasPrefix(ct, "image/"),
		strings.HasPrefix(ct, "audio/"),
		strings.HasPrefix(ct, "video/"):
		return true
	}
	switch strings.TrimSpace(strings.Split(ct, ";")[0]) {
	case "application/pdf", "application/json", "application/xml", "application/xhtml+xml":
		return true
	}
	return false
}

func detectContentType(p sandbox.Path) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(p.String()))); ct != "" {
		return ct
	}

	f, err := os.Open(p.String())
	if err != nil {
		return "application/octet-stream"
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}
