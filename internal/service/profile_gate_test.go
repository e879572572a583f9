package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

type fakeProfileReader struct {
	profile models.UserProfile
	err     error
}

func (f fakeProfileReader) GetProfile(context.Context, uint) (models.UserProfile, error) {
	return f.profile, f.err
}

func TestProfileGate(t *testing.T) {
	schoolID := uint(3)
	class := "2.B"
	blank := "  "
	level := models.ClassLevelZ7

	cases := []struct {
		name    string
		reader  fakeProfileReader
		fields  []string
		missing []string
	}{
		{
			name:   "complete profile",
			reader: fakeProfileReader{profile: models.UserProfile{SchoolID: &schoolID, SchoolClass: &class, ClassLevel: &level}},
		},
		{
			name:    "missing profile fails closed",
			reader:  fakeProfileReader{err: gorm.ErrRecordNotFound},
			missing: []string{"school", "school_class", "classlevel"},
		},
		{
			name:    "blank class counts as missing",
			reader:  fakeProfileReader{profile: models.UserProfile{SchoolID: &schoolID, SchoolClass: &blank, ClassLevel: &level}},
			missing: []string{"school_class"},
		},
		{
			name:   "only configured fields are checked",
			reader: fakeProfileReader{profile: models.UserProfile{ClassLevel: &level}},
			fields: []string{"classlevel"},
		},
		{
			name:    "unknown field is never satisfied",
			reader:  fakeProfileReader{profile: models.UserProfile{SchoolID: &schoolID}},
			fields:  []string{"school", "birthday"},
			missing: []string{"birthday"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := NewProfileGate(tc.reader, tc.fields)
			_, err := gate.Check(context.Background(), models.User{ID: 1})
			if tc.missing == nil {
				require.NoError(t, err)
				return
			}
			var incomplete *IncompleteProfileError
			require.True(t, errors.As(err, &incomplete))
			require.Equal(t, tc.missing, incomplete.Missing)
			require.ErrorIs(t, err, ErrIncompleteProfile)
		})
	}
}

func TestProfileGatePropagatesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	gate := NewProfileGate(fakeProfileReader{err: boom}, nil)
	_, err := gate.Check(context.Background(), models.User{ID: 1})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrIncompleteProfile)
}
