package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
)

func TestProblemSetServiceMembersStayInCompetition(t *testing.T) {
	f := newFixture(t)
	other := models.Competition{Name: "Other", Slug: "other"}
	require.NoError(t, f.db.Create(&other).Error)
	first := f.problem(t, 1)
	second := f.problem(t, 2)
	foreign := models.Problem{ID: 3, Text: "foreign", CompetitionID: other.ID}
	require.NoError(t, f.db.Create(&foreign).Error)
	svc := NewProblemSetService(f.sets, f.problems, f.comps, testValidator(), nil, testLogger())

	set, err := svc.Create(context.Background(), ActivityActor{ID: 1}, dto.ProblemSetCreateRequest{
		Name:          "Series 1",
		CompetitionID: f.comp.ID,
		ProblemIDs:    []uint{second.ID, first.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 2, set.ProblemCount)
	require.Equal(t, second.ID, set.Problems[0].ID)

	_, err = svc.ReplaceProblems(context.Background(), ActivityActor{ID: 1}, set.ID, dto.ProblemSetMembersRequest{ProblemIDs: []uint{first.ID, foreign.ID}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.ReplaceProblems(context.Background(), ActivityActor{ID: 1}, set.ID, dto.ProblemSetMembersRequest{ProblemIDs: []uint{first.ID, 99}})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.ReplaceProblems(context.Background(), ActivityActor{ID: 1}, set.ID, dto.ProblemSetMembersRequest{ProblemIDs: []uint{first.ID}})
	require.NoError(t, err)
	require.Equal(t, 1, updated.ProblemCount)

	_, err = svc.ReplaceProblems(context.Background(), ActivityActor{ID: 1}, 404, dto.ProblemSetMembersRequest{})
	require.ErrorIs(t, err, ErrProblemSetNotFound)
}

func TestProblemSetServiceDifficultyFilterAndUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	easy := models.ProblemSeverity{Name: "easy", Level: 1, CompetitionID: f.comp.ID}
	hard := models.ProblemSeverity{Name: "hard", Level: 4, CompetitionID: f.comp.ID}
	require.NoError(t, f.problems.CreateSeverity(ctx, &easy))
	require.NoError(t, f.problems.CreateSeverity(ctx, &hard))
	easyProblem := models.Problem{Text: "easy", CompetitionID: f.comp.ID, SeverityID: &easy.ID}
	hardProblem := models.Problem{Text: "hard", CompetitionID: f.comp.ID, SeverityID: &hard.ID}
	require.NoError(t, f.problems.Create(ctx, &easyProblem))
	require.NoError(t, f.problems.Create(ctx, &hardProblem))
	svc := NewProblemSetService(f.sets, f.problems, f.comps, testValidator(), nil, testLogger())

	easySet, err := svc.Create(ctx, ActivityActor{}, dto.ProblemSetCreateRequest{Name: "Easy", CompetitionID: f.comp.ID, ProblemIDs: []uint{easyProblem.ID}})
	require.NoError(t, err)
	mixedSet, err := svc.Create(ctx, ActivityActor{}, dto.ProblemSetCreateRequest{Name: "Mixed", CompetitionID: f.comp.ID, ProblemIDs: []uint{easyProblem.ID, hardProblem.ID}})
	require.NoError(t, err)
	require.NotNil(t, mixedSet.AverageSeverity)
	require.InDelta(t, 2.5, *mixedSet.AverageSeverity, 0.001)

	items, err := svc.List(ctx, dto.ProblemSetListRequest{Filters: map[string]string{"difficulty_above": "2"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, mixedSet.ID, items[0].ID)

	require.NoError(t, svc.MarkUsed(ctx, easySet.ID))
	problem, err := svc.(*problemSetService).problems.GetByID(ctx, easyProblem.ID)
	require.NoError(t, err)
	require.Equal(t, 1, problem.TimesUsed)
	require.ErrorIs(t, svc.MarkUsed(ctx, 999), ErrProblemSetNotFound)
}
