package dto

import (
	"time"

	"github.com/noah-isme/roots-api/internal/models"
)

// ProblemListRequest captures filters for problem listings.
type ProblemListRequest struct {
	CompetitionID uint
	SeverityID    uint
	CategoryID    uint
	Search        string
}

// ProblemCreateRequest is the payload for creating a problem.
type ProblemCreateRequest struct {
	Text            string `json:"text" validate:"required"`
	Result          string `json:"result" validate:"omitempty,max=10000"`
	Source          string `json:"source" validate:"omitempty,max=500"`
	Image           string `json:"image" validate:"omitempty,max=512"`
	AdditionalFiles string `json:"additional_files" validate:"omitempty,max=512"`
	CompetitionID   uint   `json:"competition_id" validate:"required"`
	SeverityID      *uint  `json:"severity_id" validate:"omitempty,gt=0"`
	CategoryID      *uint  `json:"category_id" validate:"omitempty,gt=0"`
}

// ProblemUpdateRequest updates the mutable parts of a problem.
type ProblemUpdateRequest struct {
	Text            *string `json:"text" validate:"omitempty,min=1"`
	Result          *string `json:"result" validate:"omitempty,max=10000"`
	Source          *string `json:"source" validate:"omitempty,max=500"`
	Image           *string `json:"image" validate:"omitempty,max=512"`
	AdditionalFiles *string `json:"additional_files" validate:"omitempty,max=512"`
	SeverityID      *uint   `json:"severity_id" validate:"omitempty,gt=0"`
	CategoryID      *uint   `json:"category_id" validate:"omitempty,gt=0"`
}

// SeverityCreateRequest defines a difficulty level for a competition.
type SeverityCreateRequest struct {
	Name          string `json:"name" validate:"required,max=64"`
	Level         *int   `json:"level" validate:"required"`
	CompetitionID uint   `json:"competition_id" validate:"required"`
}

// SeverityUpdateRequest renames or re-levels a severity. The competition is fixed.
type SeverityUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=64"`
	Level *int    `json:"level"`
}

// CategoryCreateRequest defines a problem category for a competition.
type CategoryCreateRequest struct {
	Name          string `json:"name" validate:"required,max=64"`
	CompetitionID uint   `json:"competition_id" validate:"required"`
}

// CategoryUpdateRequest renames a category. The competition is fixed.
type CategoryUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=64"`
}

// SeverityResponse serializes a problem severity.
type SeverityResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	CompetitionID uint   `json:"competition_id,omitempty"`
}

// NewSeverityResponse converts a severity model.
func NewSeverityResponse(severity models.ProblemSeverity) SeverityResponse {
	return SeverityResponse{
		ID:            severity.ID,
		Name:          severity.Name,
		Level:         severity.Level,
		CompetitionID: severity.CompetitionID,
	}
}

// CategoryResponse serializes a problem category.
type CategoryResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	CompetitionID uint   `json:"competition_id,omitempty"`
}

// NewCategoryResponse converts a category model.
func NewCategoryResponse(category models.ProblemCategory) CategoryResponse {
	return CategoryResponse{ID: category.ID, Name: category.Name, CompetitionID: category.CompetitionID}
}

// ProblemResponse serializes a problem.
type ProblemResponse struct {
	ID              uint              `json:"id"`
	Text            string            `json:"text"`
	Result          string            `json:"result,omitempty"`
	Source          string            `json:"source,omitempty"`
	Image           string            `json:"image,omitempty"`
	AdditionalFiles string            `json:"additional_files,omitempty"`
	CompetitionID   uint              `json:"competition_id"`
	Severity        *SeverityResponse `json:"severity,omitempty"`
	Category        *CategoryResponse `json:"category,omitempty"`
	TimesUsed       int               `json:"times_used"`
	LastUsedAt      *time.Time        `json:"last_used_at,omitempty"`
	AddedAt         time.Time         `json:"added_at"`
	ModifiedAt      time.Time         `json:"modified_at"`
}

// NewProblemResponse converts a problem model into its DTO.
func NewProblemResponse(problem models.Problem) ProblemResponse {
	response := ProblemResponse{
		ID:              problem.ID,
		Text:            problem.Text,
		Result:          problem.Result,
		Source:          problem.Source,
		Image:           problem.Image,
		AdditionalFiles: problem.AdditionalFiles,
		CompetitionID:   problem.CompetitionID,
		TimesUsed:       problem.TimesUsed,
		LastUsedAt:      problem.LastUsedAt,
		AddedAt:         problem.AddedAt,
		ModifiedAt:      problem.ModifiedAt,
	}
	if problem.Severity != nil {
		severity := NewSeverityResponse(*problem.Severity)
		response.Severity = &severity
	}
	if problem.Category != nil {
		category := NewCategoryResponse(*problem.Category)
		response.Category = &category
	}
	return response
}

// NewProblemResponseSlice converts a slice of problems.
func NewProblemResponseSlice(problems []models.Problem) []ProblemResponse {
	responses := make([]ProblemResponse, 0, len(problems))
	for _, problem := range problems {
		responses = append(responses, NewProblemResponse(problem))
	}
	return responses
}

// OrgSolutionResponse serializes an organizer reference solution.
type OrgSolutionResponse struct {
	ID          uint      `json:"id"`
	ProblemID   uint      `json:"problem_id"`
	OrganizerID uint      `json:"organizer_id"`
	Solution    string    `json:"solution"`
	AddedAt     time.Time `json:"added_at"`
}

// NewOrgSolutionResponse converts an organizer solution model.
func NewOrgSolutionResponse(solution models.OrgSolution) OrgSolutionResponse {
	return OrgSolutionResponse{
		ID:          solution.ID,
		ProblemID:   solution.ProblemID,
		OrganizerID: solution.OrganizerID,
		Solution:    solution.Solution,
		AddedAt:     solution.AddedAt,
	}
}
