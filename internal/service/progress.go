package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// ProgressService moves a knitter through a project: the selected size,
// the current step and the counters attached to steps.
type ProgressService struct {
	projects domain.ProjectRepository
	counters domain.CounterRepository
}

// NewProgressService creates a new ProgressService.
func NewProgressService(projects domain.ProjectRepository, counters domain.CounterRepository) *ProgressService {
	return &ProgressService{projects: projects, counters: counters}
}

// SetProgress stores the selected size and current step of an owned project.
// An empty size keeps the current selection. The step is clamped to the
// project's step range. Moving past the first step of a project that is not
// started marks it as on the needles.
func (s *ProgressService) SetProgress(ctx context.Context, userID, projectID int64, size string, step int) (*domain.Project, error) {
	p, err := s.owned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, p, size, step)
}

// Next advances the current step by one, stopping at the last step.
func (s *ProgressService) Next(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	p, err := s.owned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, p, "", p.CurrentStep+1)
}

// Prev moves the current step back by one, stopping at the first step.
func (s *ProgressService) Prev(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	p, err := s.owned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, p, "", p.CurrentStep-1)
}

func (s *ProgressService) save(ctx context.Context, p *domain.Project, size string, step int) (*domain.Project, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		size = p.SelectedSize
	}
	if !p.Document.HasSize(size) {
		return nil, fmt.Errorf("%w: size %q is not one of %s", domain.ErrInvalidInput, size, strings.Join(p.Document.EffectiveSizes(), ", "))
	}
	step = clampStep(step, len(p.Document.Steps))

	if err := s.projects.UpdateProgress(ctx, p.ID, size, step); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}
	p.SelectedSize = size
	p.CurrentStep = step

	if step > 0 && p.Status == domain.StatusNotStarted {
		if err := s.projects.UpdateStatus(ctx, p.ID, domain.StatusInProgress); err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
		p.Status = domain.StatusInProgress
	}
	return p, nil
}

// SetStatus records how far the owner has come with a project.
func (s *ProgressService) SetStatus(ctx context.Context, userID, projectID int64, status domain.ProjectStatus) (*domain.Project, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be one of %q, %q, %q", domain.ErrInvalidInput,
			domain.StatusNotStarted, domain.StatusInProgress, domain.StatusFinished)
	}
	p, err := s.owned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.projects.UpdateStatus(ctx, p.ID, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	p.Status = status
	return p, nil
}

// RenderStep resolves one step of a readable project for size. An empty size
// uses the project's selected size. Published projects of other users can be
// rendered too.
func (s *ProgressService) RenderStep(ctx context.Context, userID, projectID int64, index int, size string) (RenderedStep, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return RenderedStep{}, err
	}
	if p.UserID != userID && !p.Published {
		return RenderedStep{}, domain.ErrNotFound
	}
	if index < 0 || index >= len(p.Document.Steps) {
		return RenderedStep{}, fmt.Errorf("%w: step %d", domain.ErrNotFound, index)
	}
	if size == "" {
		size = p.SelectedSize
	}
	// Unknown sizes are not an error here: the resolver keeps the tokens
	// visible and reports them.
	rs := ResolveStep(p.Document.Steps[index], size)
	rs.Index = index
	return rs, nil
}

// AddCounter attaches a named counter starting at zero to a step.
func (s *ProgressService) AddCounter(ctx context.Context, userID, projectID int64, stepIndex int, name string) (*domain.Counter, error) {
	p, err := s.owned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: counter name is required", domain.ErrInvalidInput)
	}
	if stepIndex < 0 || stepIndex >= len(p.Document.Steps) {
		return nil, fmt.Errorf("%w: step %d does not exist", domain.ErrInvalidInput, stepIndex)
	}
	c := &domain.Counter{ProjectID: projectID, StepIndex: stepIndex, Name: name}
	if err := s.counters.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	return c, nil
}

// Increment adds delta to a counter. Counters never go below zero.
func (s *ProgressService) Increment(ctx context.Context, userID, counterID int64, delta int) (*domain.Counter, error) {
	c, err := s.ownedCounter(ctx, userID, counterID)
	if err != nil {
		return nil, err
	}
	c.Value = max(c.Value+delta, 0)
	if err := s.counters.UpdateValue(ctx, c.ID, c.Value); err != nil {
		return nil, fmt.Errorf("update counter: %w", err)
	}
	return c, nil
}

// DeleteCounter removes a counter from an owned project.
func (s *ProgressService) DeleteCounter(ctx context.Context, userID, counterID int64) error {
	c, err := s.ownedCounter(ctx, userID, counterID)
	if err != nil {
		return err
	}
	return s.counters.Delete(ctx, c.ID)
}

func (s *ProgressService) owned(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

func (s *ProgressService) ownedCounter(ctx context.Context, userID, counterID int64) (*domain.Counter, error) {
	c, err := s.counters.GetByID(ctx, counterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, userID, c.ProjectID); err != nil {
		return nil, err
	}
	return c, nil
}
