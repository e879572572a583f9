package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roots-api/internal/models"
)

func TestActiveSeasonProblemIDsFollowSeriesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []uint{1, 2, 3} {
		f.problem(t, id)
	}

	season := seedActiveSeason(t, f, 2, 1)
	second := models.ProblemSet{Name: "Series 2", CompetitionID: f.comp.ID}
	require.NoError(t, f.sets.Create(ctx, &second))
	require.NoError(t, f.sets.ReplaceMembers(ctx, second.ID, []uint{1, 3}, nil))
	require.NoError(t, f.comps.CreateSeries(ctx, &models.Series{SeasonID: season.ID, Name: "2", Number: 2, ProblemSetID: second.ID}))

	seasons := NewSeasonService(f.comps, f.solutions, f.users, "roots")
	ids, err := seasons.ActiveSeasonProblemIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{2, 1, 3}, ids)
}

func TestActiveSeasonOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewSeasonService(f.comps, f.solutions, f.users, "unknown").ActiveSeason(ctx)
	require.ErrorIs(t, err, ErrCompetitionNotFound)

	seasons := NewSeasonService(f.comps, f.solutions, f.users, "roots")
	_, err = seasons.ActiveSeason(ctx)
	require.ErrorIs(t, err, ErrNoActiveSeason)

	past := time.Now().AddDate(-1, 0, 0)
	require.NoError(t, f.comps.CreateSeason(ctx, &models.Season{
		CompetitionID: f.comp.ID, Name: "Last year", Year: past.Year(), Number: 1,
		Start: past, End: past.AddDate(0, 1, 0),
	}))
	_, err = seasons.ActiveSeason(ctx)
	require.ErrorIs(t, err, ErrNoActiveSeason)
}
