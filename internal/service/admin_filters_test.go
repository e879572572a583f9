package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

func setWithLevels(id uint, levels ...int) models.ProblemSet {
	set := models.ProblemSet{ID: id}
	for _, level := range levels {
		set.Members = append(set.Members, models.ProblemInSet{
			Problem: models.Problem{Severity: &models.ProblemSeverity{Level: level}},
		})
	}
	return set
}

func TestAverageSeverityAboveKeepsSetsAtOrAboveLevel(t *testing.T) {
	filter := AverageSeverityAbove{}
	sets := []models.ProblemSet{
		setWithLevels(1, 1, 2),
		setWithLevels(2, 2, 4),
		setWithLevels(3),
		setWithLevels(4, 3),
	}

	kept, err := filter.Apply(context.Background(), sets, "3")
	require.NoError(t, err)
	require.Len(t, kept, 2)
	require.Equal(t, uint(2), kept[0].ID)
	require.Equal(t, uint(4), kept[1].ID)

	_, err = filter.Apply(context.Background(), sets, "hard")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAverageSeverityAboveLookupsUseDistinctLevels(t *testing.T) {
	f := newFixture(t)
	for _, severity := range []models.ProblemSeverity{
		{Name: "easy", Level: 1, CompetitionID: f.comp.ID},
		{Name: "hard", Level: 3, CompetitionID: f.comp.ID},
		{Name: "easy again", Level: 1, CompetitionID: f.comp.ID},
	} {
		severity := severity
		require.NoError(t, f.problems.CreateSeverity(context.Background(), &severity))
	}

	options, err := AverageSeverityAbove{Problems: f.problems}.Lookups(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)
	require.Equal(t, "1", options[0].Value)
	require.Equal(t, "3", options[1].Value)
}

func seedActiveSeason(t *testing.T, f *fixture, problemIDs ...uint) models.Season {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	season := models.Season{CompetitionID: f.comp.ID, Name: "Spring", Year: now.Year(), Number: 1, Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	require.NoError(t, f.comps.CreateSeason(ctx, &season))
	set := models.ProblemSet{Name: "Series 1", CompetitionID: f.comp.ID}
	require.NoError(t, f.sets.Create(ctx, &set))
	require.NoError(t, f.sets.ReplaceMembers(ctx, set.ID, problemIDs, nil))
	require.NoError(t, f.comps.CreateSeries(ctx, &models.Series{SeasonID: season.ID, Name: "1", Number: 1, ProblemSetID: set.ID}))
	return season
}

func TestCurrentSeasonFilters(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", true)
	bob := f.user(t, "bob", true)
	inSeason := f.problem(t, 5)
	outOfSeason := f.problem(t, 6)
	seedActiveSeason(t, f, inSeason.ID)
	f.solution(t, alice, inSeason.ID)
	f.solution(t, bob, outOfSeason.ID)

	seasons := NewSeasonService(f.comps, f.solutions, f.users, "roots")

	problemOptions, err := CurrentSeasonProblem{Seasons: seasons}.Lookups(context.Background())
	require.NoError(t, err)
	require.Len(t, problemOptions, 1)
	require.Equal(t, "5", problemOptions[0].Value)
	require.Equal(t, "#5 Find all primes", problemOptions[0].Label)

	userOptions, err := CurrentSeasonUser{Seasons: seasons}.Lookups(context.Background())
	require.NoError(t, err)
	require.Len(t, userOptions, 1)
	require.Equal(t, "alice", userOptions[0].Label)

	solutions, err := f.solutions.List(context.Background(), repository.SolutionFilter{})
	require.NoError(t, err)
	kept, err := CurrentSeasonUser{Seasons: seasons}.Apply(context.Background(), solutions, "2")
	require.NoError(t, err)
	require.Len(t, kept, 1)
	require.Equal(t, bob.ID, kept[0].UserID)
}

func TestCurrentSeasonLookupsWithoutSeasonAreEmpty(t *testing.T) {
	f := newFixture(t)
	seasons := NewSeasonService(f.comps, f.solutions, f.users, "roots")

	options, err := CurrentSeasonProblem{Seasons: seasons}.Lookups(context.Background())
	require.NoError(t, err)
	require.Empty(t, options)

	_, err = seasons.ActiveSeason(context.Background())
	require.ErrorIs(t, err, ErrNoActiveSeason)

	missing := NewSeasonService(f.comps, f.solutions, f.users, "unknown")
	_, err = missing.ActiveSeason(context.Background())
	require.ErrorIs(t, err, ErrCompetitionNotFound)
}
