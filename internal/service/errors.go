package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProblemNotFound indicates the referenced problem does not exist.
	ErrProblemNotFound = errors.New("problem not found")
	// ErrProblemSetNotFound indicates the referenced problem set does not exist.
	ErrProblemSetNotFound = errors.New("problem set not found")
	// ErrSeverityNotFound indicates the referenced problem severity does not exist.
	ErrSeverityNotFound = errors.New("problem severity not found")
	// ErrCategoryNotFound indicates the referenced problem category does not exist.
	ErrCategoryNotFound = errors.New("problem category not found")
	// ErrPostNotFound indicates the referenced wall post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrGalleryNotFound indicates the referenced gallery does not exist.
	ErrGalleryNotFound = errors.New("gallery not found")
	// ErrEventNotFound indicates the referenced event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrSolutionNotFound indicates the referenced solution does not exist.
	ErrSolutionNotFound = errors.New("solution not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCompetitionNotFound indicates the referenced competition does not exist.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrForbidden indicates the actor may not access the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNoFiles indicates a submission without any uploaded file.
	ErrNoFiles = errors.New("at least one file is required")
	// ErrUploadTooLarge indicates an uploaded file exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrIncompleteProfile matches IncompleteProfileError.
	ErrIncompleteProfile = errors.New("profile is incomplete")
	// ErrValidation matches ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrCorruptArchive matches CorruptArchiveError.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrArchiveTooLarge indicates an archive whose entries expand beyond the configured limit.
	ErrArchiveTooLarge = errors.New("archive expands beyond the allowed size")
	// ErrMalformedEntryName indicates an archive entry name that does not follow <score>-<username>-<problem_id>.pdf.
	ErrMalformedEntryName = errors.New("malformed entry name")
)

// IncompleteProfileError lists the profile fields that must be filled in before submitting.
type IncompleteProfileError struct {
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return "Please fill in your profile before submitting solutions, missing: " + strings.Join(e.Missing, ", ")
}

func (e *IncompleteProfileError) Is(target error) bool {
	return target == ErrIncompleteProfile
}

// ValidationError carries storage-layer constraint messages meant for the user.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CorruptArchiveError names the archive entry that failed the integrity check.
// Entry is empty when the container itself could not be read.
type CorruptArchiveError struct {
	Entry string
	Err   error
}

func (e *CorruptArchiveError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("The archive could not be read: %v", e.Err)
	}
	if errors.Is(e.Err, ErrArchiveTooLarge) {
		return fmt.Sprintf("The archive expands beyond the allowed size at entry: %s", e.Entry)
	}
	return fmt.Sprintf("The archive is corrupted, first bad entry: %s", e.Entry)
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Err
}

func (e *CorruptArchiveError) Is(target error) bool {
	return target == ErrCorruptArchive
}
