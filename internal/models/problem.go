package models

import "time"

// ProblemSeverity is an ordinal difficulty level defined per competition.
type ProblemSeverity struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Name          string      `gorm:"size:64;not null" json:"name"`
	Level         int         `gorm:"not null" json:"level"`
	CompetitionID uint        `gorm:"not null;index" json:"competition_id"`
	Competition   Competition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ProblemCategory classifies problems within a competition.
type ProblemCategory struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Name          string      `gorm:"size:64;not null" json:"name"`
	CompetitionID uint        `gorm:"not null;index" json:"competition_id"`
	Competition   Competition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Problem is a graded exercise.
type Problem struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Text            string           `gorm:"type:text;not null" json:"text"`
	Result          string           `gorm:"type:text" json:"result"`
	Source          string           `gorm:"size:500" json:"source"`
	Image           string           `gorm:"size:512" json:"image"`
	AdditionalFiles string           `gorm:"size:512" json:"additional_files"`
	SeverityID      *uint            `json:"severity_id"`
	CategoryID      *uint            `json:"category_id"`
	CompetitionID   uint             `gorm:"not null;index" json:"competition_id"`
	TimesUsed       int              `gorm:"not null;default:0" json:"times_used"`
	LastUsedAt      *time.Time       `json:"last_used_at"`
	AddedByID       *uint            `json:"added_by_id"`
	ModifiedByID    *uint            `json:"modified_by_id"`
	AddedAt         time.Time        `gorm:"autoCreateTime" json:"added_at"`
	ModifiedAt      time.Time        `gorm:"autoUpdateTime" json:"modified_at"`
	Severity        *ProblemSeverity `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"severity,omitempty"`
	Category        *ProblemCategory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category,omitempty"`
	Competition     Competition      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ProblemSet is an ordered collection of problems for a competition and optional event.
type ProblemSet struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:128;not null" json:"name"`
	CompetitionID uint           `gorm:"not null;index" json:"competition_id"`
	EventID       *uint          `gorm:"index" json:"event_id"`
	Leaflet       string         `gorm:"size:512" json:"leaflet"`
	AddedByID     *uint          `json:"added_by_id"`
	ModifiedByID  *uint          `json:"modified_by_id"`
	AddedAt       time.Time      `gorm:"autoCreateTime" json:"added_at"`
	ModifiedAt    time.Time      `gorm:"autoUpdateTime" json:"modified_at"`
	Competition   Competition    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Event         *Event         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Members       []ProblemInSet `gorm:"foreignKey:ProblemSetID" json:"members,omitempty"`
}

// AverageSeverity averages the severity level of the current members.
// Members without a severity are ignored; ok is false when none has one.
func (ps ProblemSet) AverageSeverity() (average float64, ok bool) {
	total, count := 0, 0
	for _, member := range ps.Members {
		if member.Problem.Severity == nil {
			continue
		}
		total += member.Problem.Severity.Level
		count++
	}
	if count == 0 {
		return 0, false
	}
	return float64(total) / float64(count), true
}

// Problems returns the member problems ordered by position.
// Members are expected to be loaded in position order.
func (ps ProblemSet) Problems() []Problem {
	problems := make([]Problem, 0, len(ps.Members))
	for _, member := range ps.Members {
		problems = append(problems, member.Problem)
	}
	return problems
}

// ProblemInSet places a problem at an ordered slot inside a problem set.
type ProblemInSet struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProblemSetID uint       `gorm:"not null;uniqueIndex:idx_problem_in_set" json:"problemset_id"`
	ProblemID    uint       `gorm:"not null;uniqueIndex:idx_problem_in_set" json:"problem_id"`
	Position     int        `gorm:"not null" json:"position"`
	TimesUsed    int        `gorm:"not null;default:0" json:"times_used"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	Problem      Problem    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problem"`
}

// OrgSolution is a reference solution authored by the organizers.
type OrgSolution struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProblemID   uint      `gorm:"not null;index" json:"problem_id"`
	OrganizerID uint      `gorm:"not null" json:"organizer_id"`
	Solution    string    `gorm:"size:512;not null" json:"solution"`
	AddedAt     time.Time `gorm:"autoCreateTime" json:"added_at"`
	Problem     Problem   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Organizer   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
