package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// OrgSolutionService stores organizer reference solutions.
type OrgSolutionService interface {
	Upload(ctx context.Context, actor ActivityActor, problemID uint, file *multipart.FileHeader) (dto.OrgSolutionResponse, error)
	List(ctx context.Context, problemID uint) ([]dto.OrgSolutionResponse, error)
}

type orgSolutionService struct {
	problems repository.ProblemRepository
	store    DocumentStore
	activity ActivityRecorder
	maxBytes int64
	logger   zerolog.Logger
}

// NewOrgSolutionService constructs the organizer solution service.
func NewOrgSolutionService(problems repository.ProblemRepository, store DocumentStore, activity ActivityRecorder, maxBytes int64, logger zerolog.Logger) OrgSolutionService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &orgSolutionService{
		problems: problems,
		store:    store,
		activity: activity,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "org_solution_service").Logger(),
	}
}

func (s *orgSolutionService) Upload(ctx context.Context, actor ActivityActor, problemID uint, file *multipart.FileHeader) (dto.OrgSolutionResponse, error) {
	if file == nil {
		return dto.OrgSolutionResponse{}, ErrNoFiles
	}

	if _, err := s.problems.GetByID(ctx, problemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.OrgSolutionResponse{}, ErrProblemNotFound
		}
		return dto.OrgSolutionResponse{}, err
	}

	src, err := file.Open()
	if err != nil {
		return dto.OrgSolutionResponse{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return dto.OrgSolutionResponse{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return dto.OrgSolutionResponse{}, ErrUploadTooLarge
	}
	if !mimetype.Detect(data).Is("application/pdf") {
		return dto.OrgSolutionResponse{}, &ValidationError{Messages: []string{"Organizer solutions must be PDF documents."}}
	}

	rel := document.OrgSolutionPath(problemID, uuid.NewString())
	if _, err := s.store.Save(rel, bytes.NewReader(data)); err != nil {
		return dto.OrgSolutionResponse{}, err
	}

	record := models.OrgSolution{
		ProblemID:   problemID,
		OrganizerID: actor.ID,
		Solution:    rel,
	}
	if err := s.problems.CreateOrgSolution(ctx, &record); err != nil {
		if removeErr := s.store.Remove(rel); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", rel).Msg("failed to remove orphaned organizer solution")
		}
		return dto.OrgSolutionResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionOrgSolutionAdded,
		EntityType: "problem",
		EntityID:   &problemID,
		Metadata:   map[string]interface{}{"path": rel},
	})

	return dto.NewOrgSolutionResponse(record), nil
}

func (s *orgSolutionService) List(ctx context.Context, problemID uint) ([]dto.OrgSolutionResponse, error) {
	solutions, err := s.problems.ListOrgSolutions(ctx, problemID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.OrgSolutionResponse, 0, len(solutions))
	for _, solution := range solutions {
		responses = append(responses, dto.NewOrgSolutionResponse(solution))
	}
	return responses, nil
}
