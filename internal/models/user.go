package models

import (
	"strings"
	"time"
)

// User is an authenticated account. Staff users may administer problems and corrections.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// School is the institution a competitor attends.
type School struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Abbreviation string `gorm:"size:64" json:"abbreviation"`
}

// Class levels a competitor can be enrolled in.
const (
	ClassLevelZ5 = "Z5"
	ClassLevelZ6 = "Z6"
	ClassLevelZ7 = "Z7"
	ClassLevelZ8 = "Z8"
	ClassLevelZ9 = "Z9"
	ClassLevelS1 = "S1"
	ClassLevelS2 = "S2"
	ClassLevelS3 = "S3"
	ClassLevelS4 = "S4"
)

// ClassLevels lists every accepted class level in ascending order.
var ClassLevels = []string{
	ClassLevelZ5, ClassLevelZ6, ClassLevelZ7, ClassLevelZ8, ClassLevelZ9,
	ClassLevelS1, ClassLevelS2, ClassLevelS3, ClassLevelS4,
}

// UserProfile holds the competitor attributes required before solutions are accepted.
type UserProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	SchoolID    *uint     `json:"school_id"`
	SchoolClass *string   `gorm:"size:32" json:"school_class"`
	ClassLevel  *string   `gorm:"column:classlevel;size:2" json:"classlevel"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	School      *School   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"school,omitempty"`
}
