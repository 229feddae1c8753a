package handler

import (
	"time"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

// OriginalFileDTO describes the uploaded file a project came from. The
// storage key stays server-side.
type OriginalFileDTO struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// CounterDTO is the JSON representation of a step counter.
type CounterDTO struct {
	ID        int64  `json:"id"`
	StepIndex int    `json:"stepIndex"`
	Name      string `json:"name"`
	Value     int    `json:"value"`
}

func toCounterDTO(c domain.Counter) CounterDTO {
	return CounterDTO{ID: c.ID, StepIndex: c.StepIndex, Name: c.Name, Value: c.Value}
}

// ProjectDTO is the JSON representation of a project.
type ProjectDTO struct {
	ID           int64                  `json:"id"`
	PublicID     string                 `json:"publicId"`
	Owned        bool                   `json:"owned"`
	Published    bool                   `json:"published"`
	Document     domain.PatternDocument `json:"document"`
	OriginalFile *OriginalFileDTO       `json:"originalFile,omitempty"`
	SelectedSize string                 `json:"selectedSize"`
	CurrentStep  int                    `json:"currentStep"`
	Status       string                 `json:"status,omitempty"`
	Counters     []CounterDTO           `json:"counters"`
	CreatedAt    string                 `json:"createdAt"`
	UpdatedAt    string                 `json:"updatedAt"`
}

// toProjectDTO renders p for viewerID. Progress, counters and the original
// file are only shown to the owner.
func toProjectDTO(p *domain.Project, viewerID int64) ProjectDTO {
	dto := ProjectDTO{
		ID:        p.ID,
		PublicID:  p.PublicID,
		Owned:     p.UserID == viewerID,
		Published: p.Published,
		Document:  p.Document,
		Counters:  []CounterDTO{},
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
	if !dto.Owned {
		dto.SelectedSize = p.Document.EffectiveSizes()[0]
		return dto
	}
	dto.SelectedSize = p.SelectedSize
	dto.CurrentStep = p.CurrentStep
	dto.Status = string(p.Status)
	if p.OriginalFile != nil {
		dto.OriginalFile = &OriginalFileDTO{Filename: p.OriginalFile.Filename, ContentType: p.OriginalFile.ContentType}
	}
	for _, c := range p.Counters {
		dto.Counters = append(dto.Counters, toCounterDTO(c))
	}
	return dto
}

// ProjectSummaryDTO is the list form of a project.
type ProjectSummaryDTO struct {
	ID         int64    `json:"id"`
	PublicID   string   `json:"publicId"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Sizes      []string `json:"sizes"`
	Steps      int      `json:"steps"`
	Published  bool     `json:"published"`
	UpdatedAt  string   `json:"updatedAt"`
}

func toProjectSummaries(projects []domain.Project) []ProjectSummaryDTO {
	dtos := make([]ProjectSummaryDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ProjectSummaryDTO{
			ID:         p.ID,
			PublicID:   p.PublicID,
			Title:      p.Document.Title,
			Difficulty: string(p.Document.Difficulty),
			Sizes:      p.Document.EffectiveSizes(),
			Steps:      len(p.Document.Steps),
			Published:  p.Published,
			UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}
