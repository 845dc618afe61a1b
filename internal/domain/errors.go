// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity or file does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput indicates the request is malformed for the declared
// deliverable type (missing path, wrong type, unsupported extension).
var ErrInvalidInput = errors.New("invalid input")

// ErrForbidden indicates a path resolved outside the configured sandbox roots.
var ErrForbidden = errors.New("forbidden: path outside sandbox roots")

// ErrUnsupported indicates the operation is not available in this deployment
// (e.g. host reveal on a headless server).
var ErrUnsupported = errors.New("unsupported in this deployment")

// ErrRenderFailure indicates the PDF rendering engine or the filesystem
// failed while producing a derived artifact.
var ErrRenderFailure = errors.New("render failure")

// ErrConflict indicates a concurrent modification conflict, such as a
// duplicate insert racing on the deliverable dedup key.
var ErrConflict = errors.New("conflict: resource already exists")
