package models

import "time"

// Post is a wall post. Posts without a competition are shown for every competition.
type Post struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Slug          string       `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Title         string       `gorm:"size:100;not null" json:"title"`
	Body          string       `gorm:"type:text" json:"body"`
	CompetitionID *uint        `gorm:"index" json:"competition_id"`
	IsPinned      bool         `gorm:"index" json:"is_pinned"`
	AddedByID     *uint        `json:"added_by_id"`
	ModifiedByID  *uint        `json:"modified_by_id"`
	AddedAt       time.Time    `gorm:"autoCreateTime" json:"added_at"`
	ModifiedAt    time.Time    `gorm:"autoUpdateTime" json:"modified_at"`
	Competition   *Competition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Gallery is a photo gallery from one event of a competition.
type Gallery struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Slug          string      `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Name          string      `gorm:"size:50;not null" json:"name"`
	Caption       string      `gorm:"type:text" json:"caption"`
	CoverImage    string      `gorm:"size:512" json:"cover_image"`
	CompetitionID uint        `gorm:"not null;index" json:"competition_id"`
	EventID       uint        `gorm:"not null;index" json:"event_id"`
	Date          time.Time   `gorm:"not null;index" json:"date"`
	AddedByID     *uint       `json:"added_by_id"`
	ModifiedByID  *uint       `json:"modified_by_id"`
	AddedAt       time.Time   `gorm:"autoCreateTime" json:"added_at"`
	ModifiedAt    time.Time   `gorm:"autoUpdateTime" json:"modified_at"`
	Competition   Competition `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Event         Event       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
