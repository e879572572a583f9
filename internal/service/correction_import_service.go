package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/observability"
	"github.com/noah-isme/roots-api/internal/repository"
)

const (
	correctedDocumentExt = ".pdf"
	// DefaultMaxExpandedArchiveBytes caps the decompressed size of an import archive.
	DefaultMaxExpandedArchiveBytes int64 = 400 << 20
)

// ImportReport aggregates the per-entry outcomes of a correction archive import.
// Aborted holds the top-level message of an unexpected failure that stopped the
// remaining entries; entries processed before it stay applied.
type ImportReport struct {
	Successes []string
	Errors    []EntryError
	Aborted   error
}

// EntryError names an archive entry that could not be applied.
type EntryError struct {
	Entry  string
	Reason string
}

// entryRejection is a per-entry failure that does not stop the import.
type entryRejection struct {
	reason string
	err    error
}

func (r *entryRejection) Error() string {
	return r.reason
}

func (r *entryRejection) Unwrap() error {
	return r.err
}

// CorrectionEntry is the parsed form of <score>-<username>-<problem_id>.pdf.
type CorrectionEntry struct {
	Score     int
	Username  string
	ProblemID uint
}

// CorrectionImportService applies an archive of corrected solutions.
type CorrectionImportService interface {
	Import(ctx context.Context, actor ActivityActor, archive []byte) (ImportReport, error)
}

type correctionImportService struct {
	users     repository.UserRepository
	solutions repository.SolutionRepository
	store     DocumentStore
	locker    SolutionLocker
	events    EventPublisher
	activity  ActivityRecorder
	maxBytes  int64
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewCorrectionImportService constructs the archive correction importer.
// maxExpandedBytes bounds the total decompressed size of an archive; zero
// selects DefaultMaxExpandedArchiveBytes.
func NewCorrectionImportService(
	users repository.UserRepository,
	solutions repository.SolutionRepository,
	store DocumentStore,
	locker SolutionLocker,
	events EventPublisher,
	activity ActivityRecorder,
	maxExpandedBytes int64,
	logger zerolog.Logger,
) CorrectionImportService {
	if maxExpandedBytes <= 0 {
		maxExpandedBytes = DefaultMaxExpandedArchiveBytes
	}
	if locker == nil {
		locker = NewLocalSolutionLocker()
	}
	if events == nil {
		events = NewEventPublisher(nil, nil, "", logger)
	}

	return &correctionImportService{
		users:     users,
		solutions: solutions,
		store:     store,
		locker:    locker,
		events:    events,
		activity:  activity,
		maxBytes:  maxExpandedBytes,
		logger:    logger.With().Str("component", "correction_import_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/roots-api/internal/service/corrections"),
	}
}

// Import reads the archive, refuses it entirely when any entry is corrupt and
// otherwise applies every well-formed entry independently. The returned error is
// reserved for archive-level failures; per-entry problems land in the report.
func (s *correctionImportService) Import(ctx context.Context, actor ActivityActor, archive []byte) (ImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "corrections.import", trace.WithAttributes(
		attribute.Int("archive.bytes", len(archive)),
		attribute.Int64("actor.id", int64(actor.ID)),
	))
	defer span.End()

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		err = &CorruptArchiveError{Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable archive")
		observability.Imports().WithLabelValues("corrupt").Inc()
		return ImportReport{}, err
	}

	if err := verifyArchive(reader, s.maxBytes); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt archive")
		observability.Imports().WithLabelValues("corrupt").Inc()
		return ImportReport{}, err
	}

	report := ImportReport{}
	for _, file := range reader.File {
		if !strings.HasSuffix(file.Name, correctedDocumentExt) {
			continue
		}

		message, err := s.applyEntry(ctx, actor, file)
		var rejection *entryRejection
		switch {
		case errors.As(err, &rejection):
			report.Errors = append(report.Errors, EntryError{Entry: file.Name, Reason: rejection.reason})
			observability.ImportEntries().WithLabelValues("error").Inc()
		case err != nil:
			report.Aborted = fmt.Errorf("import stopped at %s: %w", file.Name, err)
			observability.ImportEntries().WithLabelValues("aborted").Inc()
		default:
			report.Successes = append(report.Successes, message)
			observability.ImportEntries().WithLabelValues("success").Inc()
		}
		if report.Aborted != nil {
			break
		}
	}

	result := "completed"
	if report.Aborted != nil {
		result = "aborted"
		span.RecordError(report.Aborted)
		span.SetStatus(codes.Error, "import aborted")
		s.logger.Error().Err(report.Aborted).Msg("correction import aborted")
	}
	observability.Imports().WithLabelValues(result).Inc()
	span.SetAttributes(
		attribute.Int("import.successes", len(report.Successes)),
		attribute.Int("import.errors", len(report.Errors)),
	)

	s.logger.Info().
		Uint("actor_id", actor.ID).
		Int("successes", len(report.Successes)).
		Int("errors", len(report.Errors)).
		Bool("aborted", report.Aborted != nil).
		Msg("correction archive imported")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionCorrectionsImport,
		EntityType: "solution",
		Metadata: map[string]interface{}{
			"successes": len(report.Successes),
			"errors":    len(report.Errors),
			"aborted":   report.Aborted != nil,
		},
	})

	return report, nil
}

// applyEntry returns a success message. An *entryRejection error affects this
// entry only; any other error stops the import.
func (s *correctionImportService) applyEntry(ctx context.Context, actor ActivityActor, file *zip.File) (string, error) {
	entry, err := ParseCorrectionEntryName(file.Name)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByUsername(ctx, entry.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &entryRejection{reason: fmt.Sprintf("User %s does not exist", entry.Username), err: ErrUserNotFound}
		}
		return "", err
	}

	unlock, err := s.locker.Lock(ctx, user.ID, entry.ProblemID)
	if err != nil {
		return "", err
	}
	defer unlock()

	solution, err := s.solutions.GetByUserAndProblem(ctx, user.ID, entry.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &entryRejection{
				reason: fmt.Sprintf("Solution for user %s and problem %d does not exist.", entry.Username, entry.ProblemID),
				err:    ErrSolutionNotFound,
			}
		}
		return "", err
	}

	rel := document.CorrectedSolutionPath(user.ID, entry.ProblemID)
	if err := s.extract(file, rel); err != nil {
		return "", err
	}

	score := entry.Score
	solution.Score = &score
	solution.CorrectedSolution = &rel
	if actor.ID != 0 {
		corrector := actor.ID
		solution.CorrectedByID = &corrector
		solution.ModifiedByID = &corrector
	}
	if err := s.solutions.Save(ctx, &solution); err != nil {
		return "", err
	}
	solution.User = user

	s.events.Publish(ctx, SolutionEvent{
		Type:       EventSolutionCorrected,
		SolutionID: solution.ID,
		UserID:     user.ID,
		ProblemID:  entry.ProblemID,
		Score:      &score,
		OccurredAt: time.Now().UTC(),
	})

	return fmt.Sprintf("%s assigned %d points", solution.String(), score), nil
}

// extract copies the entry to a scratch file and then moves it over the corrected document.
func (s *correctionImportService) extract(file *zip.File, rel string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer src.Close()

	tmp, err := s.store.TempFile("correction-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	moved := false
	defer func() {
		if !moved {
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("extract entry: %w", err)
	}
	if written > s.maxBytes {
		tmp.Close()
		return &CorruptArchiveError{Entry: file.Name, Err: ErrArchiveTooLarge}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.store.MoveInto(tmpName, rel); err != nil {
		return fmt.Errorf("move corrected document: %w", err)
	}
	moved = true
	return nil
}

// verifyArchive reads every entry fully so that checksum errors surface before
// anything is applied. Both the declared and the actually inflated sizes count
// against limit.
func verifyArchive(reader *zip.Reader, limit int64) error {
	var declared uint64
	for _, file := range reader.File {
		declared += file.UncompressedSize64
		if declared > uint64(limit) {
			return &CorruptArchiveError{Entry: file.Name, Err: ErrArchiveTooLarge}
		}
	}

	var inflated int64
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		src, err := file.Open()
		if err != nil {
			return &CorruptArchiveError{Entry: file.Name, Err: err}
		}
		n, err := io.Copy(io.Discard, io.LimitReader(src, limit-inflated+1))
		src.Close()
		if err != nil {
			return &CorruptArchiveError{Entry: file.Name, Err: err}
		}
		inflated += n
		if inflated > limit {
			return &CorruptArchiveError{Entry: file.Name, Err: ErrArchiveTooLarge}
		}
	}
	return nil
}

// ParseCorrectionEntryName splits <score>-<username>-<problem_id>.pdf. The first
// token is the score, the last one the problem id and everything in between the
// username, which may itself contain dashes.
func ParseCorrectionEntryName(name string) (CorrectionEntry, error) {
	malformed := &entryRejection{
		reason: fmt.Sprintf("%q is not of the correct form <score>-<username>-<problem_pk>.pdf", name),
		err:    ErrMalformedEntryName,
	}

	base, ok := strings.CutSuffix(name, correctedDocumentExt)
	if !ok {
		return CorrectionEntry{}, malformed
	}

	parts := strings.Split(base, "-")
	if len(parts) < 3 {
		return CorrectionEntry{}, malformed
	}

	score, err := strconv.Atoi(parts[0])
	if err != nil {
		return CorrectionEntry{}, malformed
	}
	problemID, err := strconv.ParseUint(parts[len(parts)-1], 10, 64)
	if err != nil {
		return CorrectionEntry{}, malformed
	}
	username := strings.Join(parts[1:len(parts)-1], "-")
	if username == "" {
		return CorrectionEntry{}, malformed
	}

	return CorrectionEntry{Score: score, Username: username, ProblemID: uint(problemID)}, nil
}

// NewImportReportResponse converts a report for the HTTP layer.
func NewImportReportResponse(report ImportReport) dto.ImportReportResponse {
	response := dto.ImportReportResponse{
		Successes: append([]string{}, report.Successes...),
		Errors:    make([]dto.ImportEntryError, 0, len(report.Errors)),
	}
	for _, entryErr := range report.Errors {
		response.Errors = append(response.Errors, dto.ImportEntryError{Entry: entryErr.Entry, Reason: entryErr.Reason})
	}
	if report.Aborted != nil {
		response.Aborted = report.Aborted.Error()
	}
	return response
}
