package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// projectRepo implements domain.ProjectRepository using SQLite. The pattern
// document is stored as its JSON wire form.
type projectRepo struct {
	db *sql.DB
}

const projectColumns = `id, public_id, user_id, document, published,
	original_filename, original_content_type, original_storage_key,
	selected_size, current_step, status, created_at, updated_at`

func (r *projectRepo) Create(ctx context.Context, p *domain.Project) error {
	doc, err := json.Marshal(&p.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	fname, ctype, key := originalColumns(p.OriginalFile)
	if p.Status == "" {
		p.Status = domain.StatusNotStarted
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (public_id, user_id, title, document, published,
			original_filename, original_content_type, original_storage_key,
			selected_size, current_step, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PublicID, p.UserID, p.Document.Title, string(doc), p.Published,
		fname, ctype, key, p.SelectedSize, p.CurrentStep, string(p.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get project id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *projectRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	return r.list(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY updated_at DESC, id DESC`, userID)
}

func (r *projectRepo) ListPublished(ctx context.Context) ([]domain.Project, error) {
	return r.list(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE published = TRUE ORDER BY title COLLATE NOCASE, id`)
}

func (r *projectRepo) list(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *projectRepo) Update(ctx context.Context, p *domain.Project) error {
	doc, err := json.Marshal(&p.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	fname, ctype, key := originalColumns(p.OriginalFile)

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, document = ?, published = ?,
			original_filename = ?, original_content_type = ?, original_storage_key = ?,
			selected_size = ?, current_step = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		p.Document.Title, string(doc), p.Published, fname, ctype, key,
		p.SelectedSize, p.CurrentStep, string(p.Status), now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (r *projectRepo) UpdateProgress(ctx context.Context, id int64, selectedSize string, currentStep int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET selected_size = ?, current_step = ?, updated_at = ? WHERE id = ?`,
		selectedSize, currentStep, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return requireAffected(result)
}

func (r *projectRepo) UpdateStatus(ctx context.Context, id int64, status domain.ProjectStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireAffected(result)
}

func (r *projectRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*domain.Project, error) {
	var (
		p                  domain.Project
		doc                string
		fname, ctype, skey sql.NullString
		status             string
	)
	if err := s.Scan(&p.ID, &p.PublicID, &p.UserID, &doc, &p.Published,
		&fname, &ctype, &skey, &p.SelectedSize, &p.CurrentStep, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	if err := json.Unmarshal([]byte(doc), &p.Document); err != nil {
		return nil, fmt.Errorf("decode document of project %d: %w", p.ID, err)
	}
	if skey.Valid && skey.String != "" {
		p.OriginalFile = &domain.OriginalFile{
			Filename:    fname.String,
			ContentType: ctype.String,
			StorageKey:  skey.String,
		}
	}
	return &p, nil
}

func originalColumns(f *domain.OriginalFile) (fname, ctype, key sql.NullString) {
	if f == nil {
		return
	}
	return sql.NullString{String: f.Filename, Valid: true},
		sql.NullString{String: f.ContentType, Valid: true},
		sql.NullString{String: f.StorageKey, Valid: true}
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
