package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

func TestSolutionRepositorySaveRejectsDuplicatePair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSolutionRepository(db)
	ctx := context.Background()

	user, problem := seedUserAndProblem(t, db, "alice")

	first := models.UserSolution{UserID: user.ID, ProblemID: problem.ID, Solution: "a.pdf", SubmittedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, &first))
	require.NotZero(t, first.ID)

	second := models.UserSolution{UserID: user.ID, ProblemID: problem.ID, Solution: "b.pdf", SubmittedAt: time.Now()}
	require.ErrorIs(t, repo.Save(ctx, &second), ErrDuplicate)

	first.Note = "updated"
	require.NoError(t, repo.Save(ctx, &first))

	stored, err := repo.GetByUserAndProblem(ctx, user.ID, problem.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
	require.Equal(t, "updated", stored.Note)
	require.Equal(t, "alice", stored.User.Username)
}

func TestSolutionRepositoryListFiltersAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSolutionRepository(db)
	ctx := context.Background()

	alice, problem := seedUserAndProblem(t, db, "alice")
	bob := models.User{Username: "bob", FirstName: "Bob", LastName: "Builder"}
	require.NoError(t, db.Create(&bob).Error)

	now := time.Now()
	require.NoError(t, repo.Save(ctx, &models.UserSolution{UserID: alice.ID, ProblemID: problem.ID, SubmittedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Save(ctx, &models.UserSolution{UserID: bob.ID, ProblemID: problem.ID, SubmittedAt: now}))

	all, err := repo.List(ctx, SolutionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, bob.ID, all[0].UserID, "expected newest submission first")

	found, err := repo.List(ctx, SolutionFilter{Search: "build"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "bob", found[0].User.Username)

	none, err := repo.List(ctx, SolutionFilter{UserIDs: []uint{}})
	require.NoError(t, err)
	require.Empty(t, none)

	competitors, err := repo.CompetitorIDsForProblems(ctx, []uint{problem.ID})
	require.NoError(t, err)
	require.Equal(t, []uint{alice.ID, bob.ID}, competitors)
}

func TestProblemSetRepositoryReplaceMembersKeepsOrderAndUsage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProblemSetRepository(db)
	ctx := context.Background()

	competition := models.Competition{Name: "Matik", Slug: "matik"}
	require.NoError(t, db.Create(&competition).Error)
	problems := make([]models.Problem, 3)
	for i := range problems {
		problems[i] = models.Problem{Text: "p", CompetitionID: competition.ID}
		require.NoError(t, db.Create(&problems[i]).Error)
	}

	set := models.ProblemSet{Name: "Series 1", CompetitionID: competition.ID}
	require.NoError(t, repo.Create(ctx, &set))
	require.NoError(t, repo.ReplaceMembers(ctx, set.ID, []uint{problems[0].ID, problems[1].ID}, nil))

	used := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkUsed(ctx, set.ID, used))

	require.NoError(t, repo.ReplaceMembers(ctx, set.ID, []uint{problems[2].ID, problems[0].ID}, nil))

	stored, err := repo.GetByID(ctx, set.ID)
	require.NoError(t, err)
	require.Len(t, stored.Members, 2)
	require.Equal(t, problems[2].ID, stored.Members[0].ProblemID)
	require.Equal(t, 1, stored.Members[0].Position)
	require.Equal(t, problems[0].ID, stored.Members[1].ProblemID)
	require.Equal(t, 1, stored.Members[1].TimesUsed, "usage of a retained member must survive")
	require.Zero(t, stored.Members[0].TimesUsed)

	var problem models.Problem
	require.NoError(t, db.First(&problem, problems[1].ID).Error)
	require.Equal(t, 1, problem.TimesUsed)
	require.NotNil(t, problem.LastUsedAt)
}

func TestCompetitionRepositoryActiveSeasonPrefersLatestStart(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompetitionRepository(db)
	ctx := context.Background()

	competition := models.Competition{Name: "Matik", Slug: "matik"}
	require.NoError(t, repo.Create(ctx, &competition))

	now := time.Now()
	old := models.Season{CompetitionID: competition.ID, Name: "Old", Year: 2025, Number: 1, Start: now.AddDate(0, -6, 0), End: now.AddDate(0, 1, 0)}
	current := models.Season{CompetitionID: competition.ID, Name: "Current", Year: 2026, Number: 1, Start: now.AddDate(0, -1, 0), End: now.AddDate(0, 1, 0)}
	past := models.Season{CompetitionID: competition.ID, Name: "Past", Year: 2024, Number: 1, Start: now.AddDate(-2, 0, 0), End: now.AddDate(-1, 0, 0)}
	for _, season := range []*models.Season{&old, &current, &past} {
		require.NoError(t, repo.CreateSeason(ctx, season))
	}

	set := models.ProblemSet{Name: "Set", CompetitionID: competition.ID}
	require.NoError(t, db.Create(&set).Error)
	require.NoError(t, repo.CreateSeries(ctx, &models.Series{SeasonID: current.ID, Name: "1", Number: 1, ProblemSetID: set.ID}))

	active, err := repo.ActiveSeason(ctx, competition.ID, now)
	require.NoError(t, err)
	require.Equal(t, current.ID, active.ID)
	require.Len(t, active.Series, 1)
	require.Equal(t, set.ID, active.Series[0].ProblemSet.ID)

	_, err = repo.ActiveSeason(ctx, competition.ID, now.AddDate(5, 0, 0))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepositoryProfileLoadsSchool(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := models.User{Username: "carol"}
	require.NoError(t, repo.Create(ctx, &user))
	school := models.School{Name: "Gymnazium", Abbreviation: "GYM"}
	require.NoError(t, db.Create(&school).Error)

	level := models.ClassLevelS2
	require.NoError(t, repo.SaveProfile(ctx, &models.UserProfile{UserID: user.ID, SchoolID: &school.ID, ClassLevel: &level}))

	profile, err := repo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.School)
	require.Equal(t, "GYM", profile.School.Abbreviation)

	byName, err := repo.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)
}

func seedUserAndProblem(t *testing.T, db *gorm.DB, username string) (models.User, models.Problem) {
	t.Helper()
	competition := models.Competition{Name: "Comp " + username, Slug: "comp-" + username}
	require.NoError(t, db.Create(&competition).Error)
	user := models.User{Username: username, FirstName: "Alice", LastName: "Liddell"}
	require.NoError(t, db.Create(&user).Error)
	problem := models.Problem{Text: "2+2", CompetitionID: competition.ID}
	require.NoError(t, db.Create(&problem).Error)
	return user, problem
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestActivityLogListFiltersByEntity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	first, second := uint(4), uint(5)
	for _, entry := range []models.ActivityLog{
		{ActorID: 1, ActorRole: "staff", Action: "solution.corrected", EntityType: "solution", EntityID: &first},
		{ActorID: 1, ActorRole: "staff", Action: "solution.corrected", EntityType: "solution", EntityID: &second},
		{ActorID: 2, ActorRole: "staff", Action: "solution.corrected", EntityType: "solution", EntityID: &first},
	} {
		entry := entry
		require.NoError(t, repo.Create(ctx, &entry))
	}

	entries, total, err := repo.List(ctx, ActivityLogFilter{EntityType: "solution", EntityID: &first, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 1)
	require.Equal(t, uint(2), entries[0].ActorID)
}
