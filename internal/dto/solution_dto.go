package dto

import (
	"time"

	"github.com/noah-isme/roots-api/internal/models"
)

// UploadedFileResponse describes one file that went into a solution document.
type UploadedFileResponse struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// SolutionResponse is the evaluation view of a solution.
type SolutionResponse struct {
	ID                uint                   `json:"id"`
	UserID            uint                   `json:"user_id"`
	Username          string                 `json:"username,omitempty"`
	ProblemID         uint                   `json:"problem_id"`
	Solution          string                 `json:"solution"`
	UploadedFiles     []UploadedFileResponse `json:"uploaded_files"`
	SubmittedAt       time.Time              `json:"submitted_at"`
	UserModifiedAt    *time.Time             `json:"user_modified_at,omitempty"`
	Score             *int                   `json:"score"`
	CorrectedSolution *string                `json:"corrected_solution"`
	CorrectedByID     *uint                  `json:"corrected_by_id,omitempty"`
	Note              string                 `json:"note,omitempty"`
	ClassLevel        *string                `json:"classlevel,omitempty"`
	SchoolID          *uint                  `json:"school_id,omitempty"`
	SchoolClass       *string                `json:"school_class,omitempty"`
}

// NewSolutionResponse converts a solution model into its DTO.
func NewSolutionResponse(solution models.UserSolution) SolutionResponse {
	files := solution.UploadedFileList()
	uploaded := make([]UploadedFileResponse, 0, len(files))
	for _, file := range files {
		uploaded = append(uploaded, UploadedFileResponse(file))
	}

	return SolutionResponse{
		ID:                solution.ID,
		UserID:            solution.UserID,
		Username:          solution.User.Username,
		ProblemID:         solution.ProblemID,
		Solution:          solution.Solution,
		UploadedFiles:     uploaded,
		SubmittedAt:       solution.SubmittedAt,
		UserModifiedAt:    solution.UserModifiedAt,
		Score:             solution.Score,
		CorrectedSolution: solution.CorrectedSolution,
		CorrectedByID:     solution.CorrectedByID,
		Note:              solution.Note,
		ClassLevel:        solution.ClassLevel,
		SchoolID:          solution.SchoolID,
		SchoolClass:       solution.SchoolClass,
	}
}

// NewSolutionResponseSlice converts a slice of solutions.
func NewSolutionResponseSlice(solutions []models.UserSolution) []SolutionResponse {
	responses := make([]SolutionResponse, 0, len(solutions))
	for _, solution := range solutions {
		responses = append(responses, NewSolutionResponse(solution))
	}
	return responses
}

// SubmissionResponse is returned after a successful submission.
type SubmissionResponse struct {
	Solution SolutionResponse `json:"solution"`
	Warnings []string         `json:"warnings"`
}

// AdminSolutionListRequest captures filters for the staff solution listing.
type AdminSolutionListRequest struct {
	Search  string
	Filters map[string]string
}

// CorrectionRequest is the payload for correcting a solution by hand.
type CorrectionRequest struct {
	Score *int   `json:"score" validate:"required,min=0,max=1000"`
	Note  string `json:"note" validate:"omitempty,max=5000"`
}

// ImportEntryError names a rejected archive entry.
type ImportEntryError struct {
	Entry  string `json:"entry"`
	Reason string `json:"reason"`
}

// ImportReportResponse summarizes an archive correction import.
type ImportReportResponse struct {
	Successes []string           `json:"successes"`
	Errors    []ImportEntryError `json:"errors"`
	Aborted   string             `json:"aborted,omitempty"`
}

// FilterOptionResponse is one selectable value of an admin list filter.
type FilterOptionResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterResponse describes an admin list filter and its options.
type FilterResponse struct {
	Title     string                 `json:"title"`
	Parameter string                 `json:"parameter"`
	Options   []FilterOptionResponse `json:"options"`
}
