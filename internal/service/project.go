package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/extract"
)

// ProjectService stores pattern documents as projects and enforces who may
// read and change them.
type ProjectService struct {
	projects domain.ProjectRepository
	counters domain.CounterRepository
	files    domain.FileStore
	users    domain.UserRepository
}

// NewProjectService creates a new ProjectService. users is consulted when a
// project is published.
func NewProjectService(projects domain.ProjectRepository, counters domain.CounterRepository, files domain.FileStore, users domain.UserRepository) *ProjectService {
	return &ProjectService{projects: projects, counters: counters, files: files, users: users}
}

// Create validates a hand-authored document and stores it as a new private
// project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID int64, doc *domain.PatternDocument) (*domain.Project, error) {
	return s.create(ctx, userID, doc, nil)
}

// CreateImported stores an extracted document together with the reference to
// the uploaded original.
func (s *ProjectService) CreateImported(ctx context.Context, userID int64, doc *domain.PatternDocument, original *domain.OriginalFile) (*domain.Project, error) {
	return s.create(ctx, userID, doc, original)
}

func (s *ProjectService) create(ctx context.Context, userID int64, doc *domain.PatternDocument, original *domain.OriginalFile) (*domain.Project, error) {
	doc, err := prepareDocument(doc)
	if err != nil {
		return nil, err
	}

	p := &domain.Project{
		PublicID:     uuid.NewString(),
		UserID:       userID,
		Document:     *doc,
		OriginalFile: original,
		SelectedSize: doc.EffectiveSizes()[0],
		Status:       domain.StatusNotStarted,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Get returns a project with its counters. Projects of other users are
// visible only once published.
func (s *ProjectService) Get(ctx context.Context, userID, id int64) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !p.Published {
		return nil, domain.ErrNotFound
	}
	if p.UserID == userID {
		counters, err := s.counters.ListByProject(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list counters: %w", err)
		}
		p.Counters = counters
	}
	return p, nil
}

// ListByUser returns all projects owned by userID.
func (s *ProjectService) ListByUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	return s.projects.ListByUser(ctx, userID)
}

// ListPublished returns the published pattern catalogue.
func (s *ProjectService) ListPublished(ctx context.Context) ([]domain.Project, error) {
	return s.projects.ListPublished(ctx)
}

// Update replaces the document and published flag of an owned project. The
// progress cursor is pulled back into range when sizes or steps shrink.
func (s *ProjectService) Update(ctx context.Context, userID, id int64, doc *domain.PatternDocument, published bool) (*domain.Project, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	doc, err = prepareDocument(doc)
	if err != nil {
		return nil, err
	}
	if published && !p.Published {
		if err := s.checkPublisher(ctx, userID); err != nil {
			return nil, err
		}
	}

	p.Document = *doc
	p.Published = published
	if !doc.HasSize(p.SelectedSize) {
		p.SelectedSize = doc.EffectiveSizes()[0]
	}
	p.CurrentStep = clampStep(p.CurrentStep, len(doc.Steps))

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// SetPublished toggles whether other users can see and copy the project.
func (s *ProjectService) SetPublished(ctx context.Context, userID, id int64, published bool) (*domain.Project, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if published && !p.Published {
		if err := s.checkPublisher(ctx, userID); err != nil {
			return nil, err
		}
	}
	p.Published = published
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// Delete removes an owned project and its original upload.
func (s *ProjectService) Delete(ctx context.Context, userID, id int64) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if p.OriginalFile != nil {
		// The project row is gone; a leftover blob is only wasted space.
		if err := s.files.Delete(ctx, p.OriginalFile.StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("project.original_delete_failed", "project_id", id, "error", err)
		}
	}
	return nil
}

// Copy creates a private project for userID from a published or owned
// project. Progress and counters start fresh and the original upload stays
// with its owner.
func (s *ProjectService) Copy(ctx context.Context, userID, id int64) (*domain.Project, error) {
	src, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.UserID != userID && !src.Published {
		return nil, domain.ErrNotFound
	}
	doc := src.Document.Clone()
	if src.UserID == userID && doc.Title != "" {
		doc.Title += " (kopi)"
	}
	return s.create(ctx, userID, doc, nil)
}

// Original returns the uploaded file of an owned project.
func (s *ProjectService) Original(ctx context.Context, userID, id int64) ([]byte, *domain.OriginalFile, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if p.OriginalFile == nil {
		return nil, nil, fmt.Errorf("%w: project has no original file", domain.ErrNotFound)
	}
	data, err := s.files.Get(ctx, p.OriginalFile.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("get original: %w", err)
	}
	return data, p.OriginalFile, nil
}

// checkPublisher rejects users whose role only knits.
func (s *ProjectService) checkPublisher(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !u.Role.CanPublish() {
		return fmt.Errorf("%w: only designers can publish patterns", domain.ErrInvalidInput)
	}
	return nil
}

func (s *ProjectService) owned(ctx context.Context, userID, id int64) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

// prepareDocument validates a caller-supplied document and returns a
// normalized copy. A missing difficulty defaults to Middels.
func prepareDocument(doc *domain.PatternDocument) (*domain.PatternDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	doc = doc.Clone()
	if doc.Difficulty == "" {
		doc.Difficulty = domain.DifficultyIntermediate
	}
	if err := extract.Check(doc); err != nil {
		return nil, err
	}
	extract.Normalize(doc)
	return doc, nil
}

func clampStep(step, n int) int {
	if n == 0 || step < 0 {
		return 0
	}
	if step >= n {
		return n - 1
	}
	return step
}
