// Package deliverable defines the Deliverable domain entity: a file, URL,
// or opaque artifact attached to a task.
package deliverable

import (
	"path/filepath"
	"strings"
	"time"
)

// Type classifies what the deliverable's path refers to.
type Type string

const (
	// TypeFile is a filesystem path, possibly ~-relative. File actions
	// (preview, download, reveal, render) apply only to this type.
	TypeFile Type = "file"
	// TypeURL is an absolute external URL. Never passed through the sandbox.
	TypeURL Type = "url"
	// TypeArtifact is an opaque handle with no path semantics.
	TypeArtifact Type = "artifact"
)

// Valid reports whether t is a known deliverable type.
func (t Type) Valid() bool {
	switch t {
	case TypeFile, TypeURL, TypeArtifact:
		return true
	}
	return false
}

// Deliverable is a unit of record attached to a task. Records are immutable
// after creation except for explicit metadata edits by the upstream task
// manager; the core never deletes them.
type Deliverable struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Type        Type      `json:"deliverable_type"`
	Title       string    `json:"title"`
	Path        string    `json:"path,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest holds the fields needed to attach a new deliverable.
type CreateRequest struct {
	Type        Type   `json:"deliverable_type"`
	Title       string `json:"title"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsHTML reports whether path has a .htm or .html extension,
// case-insensitively. Only HTML deliverables can be rendered to PDF.
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".htm", ".html":
		return true
	}
	return false
}

// DerivedPDFTitle returns the display title for a PDF derived from an HTML
// source: the HTML extension is stripped when present and ".pdf" appended.
func DerivedPDFTitle(sourceTitle string) string {
	base := sourceTitle
	switch strings.ToLower(filepath.Ext(sourceTitle)) {
	case ".htm", ".html":
		base = sourceTitle[:len(sourceTitle)-len(filepath.Ext(sourceTitle))]
	}
	return base + ".pdf"
}
