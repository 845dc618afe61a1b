package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Tasks
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/{id}", h.GetTask)

		// Deliverables (nested under tasks)
		r.Get("/tasks/{id}/deliverables", h.ListDeliverables)
		r.Post("/tasks/{id}/deliverables", h.CreateDeliverable)
		r.Get("/tasks/{id}/deliverables/{did}", h.GetDeliverable)
		r.Post("/tasks/{id}/deliverables/{did}/render", h.RenderDeliverable)
		r.Get("/tasks/{id}/deliverables/{did}/intent", h.DeliverableIntent)

		// File gateway
		r.Get("/files/preview", h.PreviewFile)
		r.Head("/files/preview", h.PreviewFile)
		r.Get("/files/download", h.DownloadFile)
		r.Post("/files/reveal", h.RevealFile)
	})
}
