package domain

import (
	"context"
	"time"
)

// OriginalFile describes the uploaded artifact a project was extracted from.
type OriginalFile struct {
	Filename    string
	ContentType string
	StorageKey  string // Key used to retrieve bytes from FileStore
}

// ProjectStatus is how far the owner has come knitting a project.
type ProjectStatus string

const (
	StatusNotStarted ProjectStatus = "Ikke påbegynt"
	StatusInProgress ProjectStatus = "På pinnene"
	StatusFinished   ProjectStatus = "Ferdig"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// Project is a stored pattern document plus the application-level fields
// the extraction core does not own.
type Project struct {
	ID           int64
	PublicID     string
	UserID       int64
	Document     PatternDocument
	Published    bool
	OriginalFile *OriginalFile
	SelectedSize string
	CurrentStep  int
	Status       ProjectStatus
	Counters     []Counter
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Counter is a live row/stitch counter attached to one step of a project.
type Counter struct {
	ID        int64
	ProjectID int64
	StepIndex int
	Name      string
	Value     int
	CreatedAt time.Time
}

type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id int64) (*Project, error)
	ListByUser(ctx context.Context, userID int64) ([]Project, error)
	ListPublished(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, project *Project) error
	UpdateProgress(ctx context.Context, id int64, selectedSize string, currentStep int) error
	UpdateStatus(ctx context.Context, id int64, status ProjectStatus) error
	Delete(ctx context.Context, id int64) error
}

type CounterRepository interface {
	Create(ctx context.Context, counter *Counter) error
	GetByID(ctx context.Context, id int64) (*Counter, error)
	ListByProject(ctx context.Context, projectID int64) ([]Counter, error)
	UpdateValue(ctx context.Context, id int64, value int) error
	Delete(ctx context.Context, id int64) error
}

// FileStore abstracts raw file byte storage for original uploads.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
