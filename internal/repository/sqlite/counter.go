package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// counterRepo implements domain.CounterRepository using SQLite.
type counterRepo struct {
	db *sql.DB
}

func (r *counterRepo) Create(ctx context.Context, c *domain.Counter) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO counters (project_id, step_index, name, value, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ProjectID, c.StepIndex, c.Name, c.Value, now,
	)
	if err != nil {
		return fmt.Errorf("insert counter: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get counter id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (r *counterRepo) GetByID(ctx context.Context, id int64) (*domain.Counter, error) {
	c := &domain.Counter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, step_index, name, value, created_at FROM counters WHERE id = ?`, id,
	).Scan(&c.ID, &c.ProjectID, &c.StepIndex, &c.Name, &c.Value, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get counter: %w", err)
	}
	return c, nil
}

func (r *counterRepo) ListByProject(ctx context.Context, projectID int64) ([]domain.Counter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, step_index, name, value, created_at
		 FROM counters WHERE project_id = ? ORDER BY step_index, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	var counters []domain.Counter
	for rows.Next() {
		var c domain.Counter
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.StepIndex, &c.Name, &c.Value, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

func (r *counterRepo) UpdateValue(ctx context.Context, id int64, value int) error {
	result, err := r.db.ExecContext(ctx, "UPDATE counters SET value = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("update counter: %w", err)
	}
	return requireAffected(result)
}

func (r *counterRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM counters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete counter: %w", err)
	}
	return requireAffected(result)
}
