package http

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/taskdock/taskdock/internal/sandbox"
)

// resolveQueryPath sandboxes the raw ?path= query value. Every file-serving
// handler goes through here; no handler touches disk with a raw string.
func (h *Handlers) resolveQueryPath(w http.ResponseWriter, r *http.Request) (sandbox.Path, bool) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return sandbox.Path{}, false
	}
	p, err := h.Preview.Resolve(raw)
	if err != nil {
		writeDomainError(w, err, "file not found")
		return sandbox.Path{}, false
	}
	return p, true
}

// PreviewFile handles GET and HEAD /api/v1/files/preview?path=. Content is
// served inline with the probed content type; HEAD lets the viewer inspect
// the type before committing to a body.
func (h *Handlers) PreviewFile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolveQueryPath(w, r)
	if !ok {
		return
	}
	if h.Metrics != nil {
		h.Metrics.PreviewRequests.Add(r.Context(), 1)
	}

	w.Header().Set("Content-Type", h.Preview.ContentType(r.Context(), p))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", p.Base()))
	http.ServeFile(w, r, p.String())
}

// DownloadFile handles GET /api/v1/files/download?path=. Always served as an
// attachment; this is the fallback for content that cannot render inline.
func (h *Handlers) DownloadFile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolveQueryPath(w, r)
	if !ok {
		return
	}
	if h.Metrics != nil {
		h.Metrics.PreviewRequests.Add(r.Context(), 1)
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Base()))
	http.ServeFile(w, r, p.String())
}

type revealRequest struct {
	Path string `json:"path"`
}

// RevealFile handles POST /api/v1/files/reveal. On headless hosts the
// capability is absent and the client receives 501.
func (h *Handlers) RevealFile(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[revealRequest](w, r)
	if !ok {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	p, err := h.Preview.Resolve(req.Path)
	if err != nil {
		writeDomainError(w, err, "file not found")
		return
	}
	if err := h.Reveal.Reveal(r.Context(), p); err != nil {
		writeDomainError(w, err, "file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revealed": filepath.Base(p.String())})
}
