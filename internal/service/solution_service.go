package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/observability"
	"github.com/noah-isme/roots-api/internal/repository"
)

const defaultMaxUploadBytes int64 = 20 * 1024 * 1024

// DocumentNormalizer turns uploaded files into one stored PDF.
type DocumentNormalizer interface {
	Normalize(ctx context.Context, root, rel string, inputs []document.Input) (document.Result, error)
}

// DocumentStore manages files below the protected document root.
type DocumentStore interface {
	Root() string
	Save(rel string, r io.Reader) (string, error)
	TempFile(pattern string) (*os.File, error)
	MoveInto(src, rel string) error
	Remove(rel string) error
}

// SolutionService accepts participant submissions and serves their evaluation.
type SolutionService interface {
	Submit(ctx context.Context, user models.User, problemID uint, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, viewer models.User, id uint) (dto.SolutionResponse, error)
}

// SolutionServiceConfig groups the collaborators of the submission service.
type SolutionServiceConfig struct {
	Problems       repository.ProblemRepository
	Solutions      repository.SolutionRepository
	Gate           *ProfileGate
	Normalizer     DocumentNormalizer
	Store          DocumentStore
	Locker         SolutionLocker
	Events         EventPublisher
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

type solutionService struct {
	problems  repository.ProblemRepository
	solutions repository.SolutionRepository
	gate      *ProfileGate
	normalize DocumentNormalizer
	store     DocumentStore
	locker    SolutionLocker
	events    EventPublisher
	maxBytes  int64
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewSolutionService constructs the submission upsert service.
func NewSolutionService(cfg SolutionServiceConfig) SolutionService {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	locker := cfg.Locker
	if locker == nil {
		locker = NewLocalSolutionLocker()
	}
	events := cfg.Events
	if events == nil {
		events = NewEventPublisher(nil, nil, "", cfg.Logger)
	}

	return &solutionService{
		problems:  cfg.Problems,
		solutions: cfg.Solutions,
		gate:      cfg.Gate,
		normalize: cfg.Normalizer,
		store:     cfg.Store,
		locker:    locker,
		events:    events,
		maxBytes:  maxBytes,
		logger:    cfg.Logger.With().Str("component", "solution_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/roots-api/internal/service/solution"),
		now:       time.Now,
	}
}

// Submit creates or replaces the user's solution of a problem. The stored document
// lives at a path derived from (user, problem), so a resubmission overwrites it.
func (s *solutionService) Submit(ctx context.Context, user models.User, problemID uint, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "solutions.submit", trace.WithAttributes(
		attribute.Int64("solution.user_id", int64(user.ID)),
		attribute.Int64("solution.problem_id", int64(problemID)),
		attribute.Int("solution.files", len(files)),
	))
	defer span.End()

	response, err := s.submit(ctx, user, problemID, files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.SolutionSubmissions().WithLabelValues(submissionResult(err)).Inc()
		return dto.SubmissionResponse{}, err
	}

	observability.SolutionSubmissions().WithLabelValues("accepted").Inc()
	return response, nil
}

func (s *solutionService) submit(ctx context.Context, user models.User, problemID uint, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	if len(files) == 0 {
		return dto.SubmissionResponse{}, ErrNoFiles
	}

	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrProblemNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	unlock, err := s.locker.Lock(ctx, user.ID, problem.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	defer unlock()

	solution, err := s.solutions.GetByUserAndProblem(ctx, user.ID, problem.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, err
		}
		solution = models.UserSolution{UserID: user.ID, ProblemID: problem.ID}
	}

	profile, err := s.gate.Check(ctx, user)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	inputs, uploaded, err := s.readUploads(files)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	rel := document.SolutionPath(user.ID, problem.ID)
	result, err := s.normalize.Normalize(ctx, s.store.Root(), rel, inputs)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	isNew := solution.IsNew()
	if isNew {
		solution.SubmittedAt = now
		solution.AddedByID = &user.ID
	}
	solution.Solution = result.Path
	solution.UserModifiedAt = &now
	solution.ModifiedByID = &user.ID
	solution.ClassLevel = profile.ClassLevel
	solution.SchoolID = profile.SchoolID
	solution.SchoolClass = profile.SchoolClass
	solution.SetUploadedFiles(uploaded)

	if err := s.solutions.Save(ctx, &solution); err != nil {
		if isNew {
			// A brand-new solution has no row pointing at the file.
			if removeErr := s.store.Remove(rel); removeErr != nil {
				s.logger.Warn().Err(removeErr).Str("path", rel).Msg("failed to remove orphaned solution document")
			}
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.SubmissionResponse{}, &ValidationError{Messages: []string{"Solution with this User and Problem already exists."}}
		}
		return dto.SubmissionResponse{}, err
	}
	solution.User = user
	solution.Problem = problem

	s.logger.Info().
		Uint("solution_id", solution.ID).
		Uint("user_id", user.ID).
		Uint("problem_id", problem.ID).
		Bool("created", isNew).
		Int("files", len(inputs)).
		Msg("solution submitted")

	s.events.Publish(ctx, SolutionEvent{
		Type:       EventSolutionSubmitted,
		SolutionID: solution.ID,
		UserID:     user.ID,
		ProblemID:  problem.ID,
		OccurredAt: now.UTC(),
	})

	warnings := make([]string, 0, len(result.Warnings))
	for _, warning := range result.Warnings {
		warnings = append(warnings, warning.Message)
	}

	return dto.SubmissionResponse{
		Solution: dto.NewSolutionResponse(solution),
		Warnings: warnings,
	}, nil
}

func (s *solutionService) readUploads(files []*multipart.FileHeader) ([]document.Input, []models.UploadedFile, error) {
	inputs := make([]document.Input, 0, len(files))
	uploaded := make([]models.UploadedFile, 0, len(files))

	for _, file := range files {
		if file == nil {
			continue
		}
		if file.Size > s.maxBytes {
			return nil, nil, fmt.Errorf("%s: %w", file.Filename, ErrUploadTooLarge)
		}

		data, err := s.readUpload(file)
		if err != nil {
			return nil, nil, err
		}

		inputs = append(inputs, document.Input{Name: file.Filename, Data: data})
		uploaded = append(uploaded, models.UploadedFile{
			Name:      file.Filename,
			SizeBytes: int64(len(data)),
			MimeType:  mimetype.Detect(data).String(),
		})
	}

	if len(inputs) == 0 {
		return nil, nil, ErrNoFiles
	}
	return inputs, uploaded, nil
}

func (s *solutionService) readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%s: %w", file.Filename, ErrUploadTooLarge)
	}
	return data, nil
}

// Get returns a solution to its owner or to staff.
func (s *solutionService) Get(ctx context.Context, viewer models.User, id uint) (dto.SolutionResponse, error) {
	solution, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SolutionResponse{}, ErrSolutionNotFound
		}
		return dto.SolutionResponse{}, err
	}

	if solution.UserID != viewer.ID && !viewer.IsStaff {
		return dto.SolutionResponse{}, ErrForbidden
	}

	return dto.NewSolutionResponse(solution), nil
}

func submissionResult(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteProfile):
		return "incomplete_profile"
	case errors.Is(err, document.ErrConversion):
		return "conversion_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrProblemNotFound):
		return "not_found"
	case errors.Is(err, ErrNoFiles), errors.Is(err, ErrUploadTooLarge):
		return "bad_request"
	default:
		return "error"
	}
}
