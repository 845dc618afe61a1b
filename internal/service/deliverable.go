package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taskdock/taskdock/internal/adapter/otel"
	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/domain/deliverable"
	"github.com/taskdock/taskdock/internal/port/database"
	"github.com/taskdock/taskdock/internal/port/renderer"
	"github.com/taskdock/taskdock/internal/sandbox"
)

// derivedDescription marks records produced by the render pipeline.
const derivedDescription = "PDF generated from HTML deliverable"

// DeliverableService owns the deliverable record lifecycle and the
// render-then-publish pipeline.
type DeliverableService struct {
	store    database.Store
	sb       *sandbox.Sandbox
	renderer renderer.Renderer
	bus      *EventBus
	metrics  *otel.Metrics

	// publish serializes the find-or-insert step per canonical rendered
	// path. Rendering itself is not serialized; only the record dedup is.
	publish singleflight.Group
}

// NewDeliverableService creates a DeliverableService. metrics may be nil.
func NewDeliverableService(store database.Store, sb *sandbox.Sandbox, r renderer.Renderer, bus *EventBus, metrics *otel.Metrics) *DeliverableService {
	return &DeliverableService{store: store, sb: sb, renderer: r, bus: bus, metrics: metrics}
}

// List returns all deliverables for a task. Metadata only, no sandboxing.
func (s *DeliverableService) List(ctx context.Context, taskID string) ([]deliverable.Deliverable, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.ListDeliverables(ctx, taskID)
}

// Get returns a single deliverable scoped to its task.
func (s *DeliverableService) Get(ctx context.Context, taskID, id string) (*deliverable.Deliverable, error) {
	return s.store.GetDeliverable(ctx, taskID, id)
}

// Create attaches a new deliverable on behalf of the upstream task manager
// and notifies subscribers.
func (s *DeliverableService) Create(ctx context.Context, taskID string, req deliverable.CreateRequest) (*deliverable.Deliverable, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("deliverable type %q: %w", req.Type, domain.ErrInvalidInput)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	d, err := s.store.CreateDeliverable(ctx, taskID, req)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, EventDeliverableAdded, d)
	return d, nil
}

// RenderToPDF runs the full pipeline for an HTML file deliverable: sandbox
// resolution, PDF rendering, and idempotent publication of the derived
// artifact. Calling it N times for the same source yields exactly one stored
// PDF deliverable; redundant calls return the existing record and emit no
// event.
func (s *DeliverableService) RenderToPDF(ctx context.Context, taskID, deliverableID string) (*deliverable.Deliverable, error) {
	start := time.Now()
	ctx, span := otel.StartRenderSpan(ctx, taskID, deliverableID)
	defer span.End()

	d, err := s.store.GetDeliverable(ctx, taskID, deliverableID)
	if err != nil {
		return nil, err
	}
	if d.Type != deliverable.TypeFile {
		return nil, fmt.Errorf("deliverable %s is %s, not a file: %w", d.ID, d.Type, domain.ErrInvalidInput)
	}
	if d.Path == "" {
		return nil, fmt.Errorf("deliverable %s has no path: %w", d.ID, domain.ErrInvalidInput)
	}
	if !deliverable.IsHTML(d.Path) {
		return nil, fmt.Errorf("deliverable %s is not an HTML document: %w", d.ID, domain.ErrInvalidInput)
	}

	_, resolveSpan := otel.StartResolveSpan(ctx, d.Path)
	source, err := s.sb.Resolve(d.Path)
	resolveSpan.End()
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) && s.metrics != nil {
			s.metrics.SandboxRejects.Add(ctx, 1)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RendersStarted.Add(ctx, 1)
	}
	rendered, err := s.renderer.Render(ctx, source)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RendersFailed.Add(ctx, 1)
		}
		return nil, err
	}

	out, err := s.publishRendered(ctx, taskID, d, rendered)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RendersSucceeded.Add(ctx, 1)
		s.metrics.RenderDuration.Record(ctx, time.Since(start).Seconds())
	}
	return out, nil
}

// publishRendered is the ArtifactPublisher: find-or-insert on the dedup key
// (task, file, exact rendered path), emitting deliverable.added only for a
// genuinely new record. Concurrent publishes for the same path collapse into
// one execution; a lost storage race degrades to a re-read.
func (s *DeliverableService) publishRendered(ctx context.Context, taskID string, source *deliverable.Deliverable, rendered sandbox.Path) (*deliverable.Deliverable, error) {
	key := taskID + "\x00" + rendered.String()
	v, err, _ := s.publish.Do(key, func() (any, error) {
		return s.findOrInsert(ctx, taskID, source, rendered)
	})
	if err != nil {
		return nil, err
	}
	return v.(*deliverable.Deliverable), nil
}

func (s *DeliverableService) findOrInsert(ctx context.Context, taskID string, source *deliverable.Deliverable, rendered sandbox.Path) (*deliverable.Deliverable, error) {
	existing, err := s.store.FindDeliverableByPath(ctx, taskID, deliverable.TypeFile, rendered.String())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if s.metrics != nil {
			s.metrics.RendersDeduped.Add(ctx, 1)
		}
		slog.Debug("render already recorded", "task_id", taskID, "path", rendered.String())
		return existing, nil
	}

	rec, err := s.store.CreateDeliverable(ctx, taskID, deliverable.CreateRequest{
		Type:        deliverable.TypeFile,
		Title:       deliverable.DerivedPDFTitle(source.Title),
		Path:        rendered.String(),
		Description: derivedDescription,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Another writer won the insert; their record is ours.
			if s.metrics != nil {
				s.metrics.RendersDeduped.Add(ctx, 1)
			}
			return s.store.FindDeliverableByPath(ctx, taskID, deliverable.TypeFile, rendered.String())
		}
		return nil, err
	}

	s.bus.Publish(ctx, EventDeliverableAdded, rec)
	return rec, nil
}
