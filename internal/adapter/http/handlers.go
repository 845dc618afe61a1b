package http

import (
	"context"
	"net/http"

	"github.com/taskdock/taskdock/internal/adapter/otel"
	"github.com/taskdock/taskdock/internal/domain/deliverable"
	"github.com/taskdock/taskdock/internal/domain/task"
	"github.com/taskdock/taskdock/internal/sandbox"
	"github.com/taskdock/taskdock/internal/service"
)

// Revealer surfaces a file in the host's file browser.
type Revealer interface {
	Reveal(ctx context.Context, path sandbox.Path) error
}

// Pinger checks a backing store's liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventSink reports whether the external event broker is reachable.
type EventSink interface {
	IsConnected() bool
}

// ConnCounter reports the number of live viewer connections.
type ConnCounter interface {
	ConnectionCount() int
}

// Handlers holds the HTTP handler dependencies. Metrics, DB, Events, and
// Viewers may be nil; Health degrades accordingly.
type Handlers struct {
	Tasks        *service.TaskService
	Deliverables *service.DeliverableService
	Preview      *service.PreviewService
	Reveal       Revealer
	Metrics      *otel.Metrics

	DB      Pinger
	Events  EventSink
	Viewers ConnCounter
}

// ListTasks handles GET /api/v1/tasks.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "tasks unavailable")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.CreateRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Tasks.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListDeliverables handles GET /api/v1/tasks/{id}/deliverables.
func (h *Handlers) ListDeliverables(w http.ResponseWriter, r *http.Request) {
	list, err := h.Deliverables.List(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	if list == nil {
		list = []deliverable.Deliverable{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetDeliverable handles GET /api/v1/tasks/{id}/deliverables/{did}.
func (h *Handlers) GetDeliverable(w http.ResponseWriter, r *http.Request) {
	d, err := h.Deliverables.Get(r.Context(), urlParam(r, "id"), urlParam(r, "did"))
	if err != nil {
		writeDomainError(w, err, "deliverable not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDeliverable handles POST /api/v1/tasks/{id}/deliverables.
func (h *Handlers) CreateDeliverable(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[deliverable.CreateRequest](w, r)
	if !ok {
		return
	}
	d, err := h.Deliverables.Create(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// RenderDeliverable handles POST /api/v1/tasks/{id}/deliverables/{did}/render.
// Rendering the same source twice returns the same stored record.
func (h *Handlers) RenderDeliverable(w http.ResponseWriter, r *http.Request) {
	d, err := h.Deliverables.RenderToPDF(r.Context(), urlParam(r, "id"), urlParam(r, "did"))
	if err != nil {
		writeDomainError(w, err, "deliverable not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeliverableIntent handles GET /api/v1/tasks/{id}/deliverables/{did}/intent.
// It tells the viewer how to act on the deliverable without touching content.
func (h *Handlers) DeliverableIntent(w http.ResponseWriter, r *http.Request) {
	action := service.Action(r.URL.Query().Get("action"))
	if action == "" {
		action = service.ActionOpen
	}

	d, err := h.Deliverables.Get(r.Context(), urlParam(r, "id"), urlParam(r, "did"))
	if err != nil {
		writeDomainError(w, err, "deliverable not found")
		return
	}
	intent, err := h.Preview.Intent(r.Context(), d, action)
	if err != nil {
		writeDomainError(w, err, "deliverable not found")
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
		Viewers  int    `json:"viewers"`
	}

	status := healthStatus{Status: "ok", Postgres: "disabled", NATS: "disabled"}
	if h.DB != nil {
		status.Postgres = "ok"
		if err := h.DB.Ping(r.Context()); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
		}
	}
	if h.Events != nil {
		status.NATS = "ok"
		if !h.Events.IsConnected() {
			status.Status = "degraded"
			status.NATS = "disconnected"
		}
	}
	if h.Viewers != nil {
		status.Viewers = h.Viewers.ConnectionCount()
	}
	writeJSON(w, http.StatusOK, status)
}
