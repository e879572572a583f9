package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// UploadedFile records metadata about one file that went into a normalized solution.
type UploadedFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// UserSolution is a participant's answer to a problem. There is at most one per (user, problem).
type UserSolution struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"not null;uniqueIndex:idx_user_problem" json:"user_id"`
	ProblemID         uint           `gorm:"not null;uniqueIndex:idx_user_problem" json:"problem_id"`
	Solution          string         `gorm:"size:512" json:"solution"`
	UploadedFiles     datatypes.JSON `gorm:"type:json" json:"-"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	UserModifiedAt    *time.Time     `json:"user_modified_at"`
	Score             *int           `json:"score"`
	CorrectedSolution *string        `gorm:"size:512" json:"corrected_solution"`
	CorrectedByID     *uint          `json:"corrected_by_id"`
	Note              string         `gorm:"type:text" json:"note"`
	ClassLevel        *string        `gorm:"column:classlevel;size:2" json:"classlevel"`
	SchoolID          *uint          `json:"school_id"`
	SchoolClass       *string        `gorm:"size:32" json:"school_class"`
	AddedByID         *uint          `json:"added_by_id"`
	ModifiedByID      *uint          `json:"modified_by_id"`
	AddedAt           time.Time      `gorm:"autoCreateTime" json:"added_at"`
	ModifiedAt        time.Time      `gorm:"autoUpdateTime" json:"modified_at"`
	User              User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Problem           Problem        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CorrectedBy       *User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	School            *School        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// IsNew reports whether the solution has not been persisted yet.
func (s UserSolution) IsNew() bool {
	return s.ID == 0
}

// IsCorrected reports whether a score has been assigned.
func (s UserSolution) IsCorrected() bool {
	return s.Score != nil
}

// String identifies the solution in staff-facing messages.
func (s UserSolution) String() string {
	username := s.User.Username
	if username == "" {
		username = fmt.Sprintf("user #%d", s.UserID)
	}
	return fmt.Sprintf("Solution of %s for problem #%d", username, s.ProblemID)
}

// SetUploadedFiles serializes file metadata into the JSON column.
func (s *UserSolution) SetUploadedFiles(files []UploadedFile) {
	data, err := json.Marshal(files)
	if err != nil || files == nil {
		s.UploadedFiles = datatypes.JSON([]byte("[]"))
		return
	}
	s.UploadedFiles = datatypes.JSON(data)
}

// UploadedFileList decodes the stored file metadata.
func (s UserSolution) UploadedFileList() []UploadedFile {
	if len(s.UploadedFiles) == 0 {
		return nil
	}

	var files []UploadedFile
	if err := json.Unmarshal(s.UploadedFiles, &files); err != nil {
		return nil
	}
	return files
}
