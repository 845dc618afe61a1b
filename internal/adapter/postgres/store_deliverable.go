package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/domain/deliverable"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func scanDeliverable(row scannable) (deliverable.Deliverable, error) {
	var d deliverable.Deliverable
	var path sql.NullString
	err := row.Scan(&d.ID, &d.TaskID, &d.Type, &d.Title, &path, &d.Description, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	d.Path = path.String
	return d, nil
}

// nullIfEmpty returns nil for empty strings so the partial dedup index only
// covers deliverables that actually carry a path.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const deliverableCols = `id, task_id, deliverable_type, title, path, description, created_at`

func (s *Store) ListDeliverables(ctx context.Context, taskID string) ([]deliverable.Deliverable, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+deliverableCols+`
		 FROM deliverables WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	var out []deliverable.Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDeliverable(ctx context.Context, taskID, id string) (*deliverable.Deliverable, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+deliverableCols+`
		 FROM deliverables WHERE id = $1 AND task_id = $2`, id, taskID)

	d, err := scanDeliverable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get deliverable %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get deliverable %s: %w", id, err)
	}
	return &d, nil
}

func (s *Store) FindDeliverableByPath(ctx context.Context, taskID string, typ deliverable.Type, path string) (*deliverable.Deliverable, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+deliverableCols+`
		 FROM deliverables WHERE task_id = $1 AND deliverable_type = $2 AND path = $3`,
		taskID, typ, path)

	d, err := scanDeliverable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find deliverable by path: %w", err)
	}
	return &d, nil
}

func (s *Store) CreateDeliverable(ctx context.Context, taskID string, req deliverable.CreateRequest) (*deliverable.Deliverable, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO deliverables (id, task_id, deliverable_type, title, path, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+deliverableCols,
		uuid.NewString(), taskID, req.Type, req.Title, nullIfEmpty(req.Path), req.Description)

	d, err := scanDeliverable(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create deliverable: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create deliverable: %w", err)
	}
	return &d, nil
}
