package dto

import (
	"time"

	"github.com/noah-isme/roots-api/internal/models"
)

// ProblemSetListRequest captures filters for problem set listings.
type ProblemSetListRequest struct {
	CompetitionID uint
	Search        string
	Filters       map[string]string
}

// ProblemSetCreateRequest is the payload for creating a problem set.
type ProblemSetCreateRequest struct {
	Name          string `json:"name" validate:"required,max=128"`
	CompetitionID uint   `json:"competition_id" validate:"required"`
	EventID       *uint  `json:"event_id" validate:"omitempty,gt=0"`
	Leaflet       string `json:"leaflet" validate:"omitempty,max=512"`
	ProblemIDs    []uint `json:"problem_ids" validate:"omitempty,unique,dive,gt=0"`
}

// ProblemSetMembersRequest replaces the ordered members of a problem set.
type ProblemSetMembersRequest struct {
	ProblemIDs []uint `json:"problem_ids" validate:"unique,dive,gt=0"`
}

// ProblemSetResponse serializes a problem set with its ordered problems.
type ProblemSetResponse struct {
	ID              uint              `json:"id"`
	Name            string            `json:"name"`
	CompetitionID   uint              `json:"competition_id"`
	EventID         *uint             `json:"event_id,omitempty"`
	Leaflet         string            `json:"leaflet,omitempty"`
	ProblemCount    int               `json:"problem_count"`
	AverageSeverity *float64          `json:"average_severity"`
	Problems        []ProblemResponse `json:"problems"`
	ModifiedAt      time.Time         `json:"modified_at"`
}

// NewProblemSetResponse converts a problem set model loaded with members.
func NewProblemSetResponse(set models.ProblemSet) ProblemSetResponse {
	problems := set.Problems()
	response := ProblemSetResponse{
		ID:            set.ID,
		Name:          set.Name,
		CompetitionID: set.CompetitionID,
		EventID:       set.EventID,
		Leaflet:       set.Leaflet,
		ProblemCount:  len(problems),
		Problems:      NewProblemResponseSlice(problems),
		ModifiedAt:    set.ModifiedAt,
	}
	if average, ok := set.AverageSeverity(); ok {
		response.AverageSeverity = &average
	}
	return response
}

// NewProblemSetResponseSlice converts a slice of problem sets.
func NewProblemSetResponseSlice(sets []models.ProblemSet) []ProblemSetResponse {
	responses := make([]ProblemSetResponse, 0, len(sets))
	for _, set := range sets {
		responses = append(responses, NewProblemSetResponse(set))
	}
	return responses
}
