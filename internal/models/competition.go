package models

import "time"

// Competition groups seasons, problems and problem sets.
type Competition struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Slug      string    `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Seasons   []Season  `json:"-"`
}

// Event is a one-off happening of a competition, e.g. a camp or a final round.
type Event struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CompetitionID uint        `gorm:"not null;index" json:"competition_id"`
	Name          string      `gorm:"size:128;not null" json:"name"`
	Start         time.Time   `gorm:"column:starts_at" json:"start"`
	End           time.Time   `gorm:"column:ends_at" json:"end"`
	Competition   Competition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Season is a timed competition period containing one or more series.
type Season struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CompetitionID uint        `gorm:"not null;index" json:"competition_id"`
	Name          string      `gorm:"size:128;not null" json:"name"`
	Year          int         `gorm:"not null" json:"year"`
	Number        int         `gorm:"not null" json:"number"`
	Start         time.Time   `gorm:"column:starts_at;not null" json:"start"`
	End           time.Time   `gorm:"column:ends_at;not null" json:"end"`
	Competition   Competition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Series        []Series    `json:"series,omitempty"`
}

// IsActive reports whether the reference time falls inside the season.
func (s Season) IsActive(reference time.Time) bool {
	return !reference.Before(s.Start) && !reference.After(s.End)
}

// Series is a graded round within a season, associated with one problem set.
type Series struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	SeasonID           uint       `gorm:"not null;index" json:"season_id"`
	Name               string     `gorm:"size:128;not null" json:"name"`
	Number             int        `gorm:"not null" json:"number"`
	SubmissionDeadline time.Time  `json:"submission_deadline"`
	ProblemSetID       uint       `gorm:"not null" json:"problemset_id"`
	Season             Season     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProblemSet         ProblemSet `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
