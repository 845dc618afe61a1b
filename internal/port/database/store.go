// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/taskdock/taskdock/internal/domain/deliverable"
	"github.com/taskdock/taskdock/internal/domain/task"
)

// Store is the port interface for durable state. The Deliverable record is
// the only state the core depends on; tasks are the upstream collaborator's
// records, surfaced here just enough to own deliverables.
type Store interface {
	// Tasks
	ListTasks(ctx context.Context) ([]task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	CreateTask(ctx context.Context, req task.CreateRequest) (*task.Task, error)

	// Deliverables
	ListDeliverables(ctx context.Context, taskID string) ([]deliverable.Deliverable, error)
	GetDeliverable(ctx context.Context, taskID, id string) (*deliverable.Deliverable, error)
	// FindDeliverableByPath looks up the dedup key (task, type, exact path).
	// A miss is reported as (nil, nil), not an error.
	FindDeliverableByPath(ctx context.Context, taskID string, typ deliverable.Type, path string) (*deliverable.Deliverable, error)
	// CreateDeliverable assigns the id and creation timestamp when absent.
	// It does not enforce the dedup invariant; that is the publisher's job,
	// backed by the storage unique index which surfaces races as ErrConflict.
	CreateDeliverable(ctx context.Context, taskID string, req deliverable.CreateRequest) (*deliverable.Deliverable, error)
}
