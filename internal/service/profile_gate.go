package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

// DefaultRequiredProfileFields are checked when no list is configured.
var DefaultRequiredProfileFields = []string{"school", "school_class", "classlevel"}

// ProfileReader loads competitor profiles.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uint) (models.UserProfile, error)
}

var profileFieldPresent = map[string]func(models.UserProfile) bool{
	"school": func(p models.UserProfile) bool {
		return p.SchoolID != nil
	},
	"school_class": func(p models.UserProfile) bool {
		return p.SchoolClass != nil && strings.TrimSpace(*p.SchoolClass) != ""
	},
	"classlevel": func(p models.UserProfile) bool {
		return p.ClassLevel != nil && strings.TrimSpace(*p.ClassLevel) != ""
	},
}

// ProfileGate decides whether a user's profile is complete enough to submit solutions.
type ProfileGate struct {
	profiles ProfileReader
	fields   []string
}

// NewProfileGate builds a gate over the given required fields.
func NewProfileGate(profiles ProfileReader, fields []string) *ProfileGate {
	if len(fields) == 0 {
		fields = DefaultRequiredProfileFields
	}
	return &ProfileGate{profiles: profiles, fields: fields}
}

// Check returns the user's profile when every required field is filled in and an
// *IncompleteProfileError naming the missing fields otherwise. A user without a
// profile misses every field. Unknown field names count as missing.
func (g *ProfileGate) Check(ctx context.Context, user models.User) (models.UserProfile, error) {
	profile, err := g.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			missing := make([]string, len(g.fields))
			copy(missing, g.fields)
			return models.UserProfile{}, &IncompleteProfileError{Missing: missing}
		}
		return models.UserProfile{}, err
	}

	var missing []string
	for _, field := range g.fields {
		present, known := profileFieldPresent[field]
		if !known || !present(profile) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return models.UserProfile{}, &IncompleteProfileError{Missing: missing}
	}

	return profile, nil
}
