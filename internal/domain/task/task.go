// Package task defines the minimal Task surface the deliverables core
// depends on. Task lifecycle management lives in the upstream collaborator.
package task

import "time"

// Task is the unit of work deliverables are attached to.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest holds the fields needed to create a task.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
