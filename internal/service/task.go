package service

import (
	"context"
	"fmt"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/domain/task"
	"github.com/taskdock/taskdock/internal/port/database"
)

// TaskService exposes the minimal task surface the deliverables core needs.
type TaskService struct {
	store database.Store
	bus   *EventBus
}

// NewTaskService creates a new TaskService.
func NewTaskService(store database.Store, bus *EventBus) *TaskService {
	return &TaskService{store: store, bus: bus}
}

// List returns all tasks.
func (s *TaskService) List(ctx context.Context) ([]task.Task, error) {
	return s.store.ListTasks(ctx)
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Create creates a task and notifies subscribers.
func (s *TaskService) Create(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	t, err := s.store.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, EventTaskCreated, t)
	return t, nil
}
