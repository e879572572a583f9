package service

import (
	"archive/zip"
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).Level(zerolog.Disabled)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// fakeNormalizer concatenates the inputs instead of producing a PDF.
type fakeNormalizer struct {
	calls int
	err   error
}

func (f *fakeNormalizer) Normalize(_ context.Context, root, rel string, inputs []document.Input) (document.Result, error) {
	f.calls++
	if f.err != nil {
		return document.Result{}, f.err
	}

	var buf bytes.Buffer
	for _, input := range inputs {
		buf.Write(input.Data)
	}
	if _, err := document.NewStore(root, "").Save(rel, &buf); err != nil {
		return document.Result{}, err
	}

	warnings := document.NewNormalizer(nil, []string{".doc", ".docx"}, zerolog.Nop()).Warnings(inputs)
	return document.Result{Path: rel, Warnings: warnings}, nil
}

// failingMoveStore fails every move so that imports hit an unexpected error.
type failingMoveStore struct {
	*document.Store
	err error
}

func (s failingMoveStore) MoveInto(string, string) error {
	return s.err
}

type fakeActivityRecorder struct {
	entries []ActivityEntry
}

func (f *fakeActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	f.entries = append(f.entries, entry)
	return dto.ActivityResponse{}, nil
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"solution\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["solution"]
	require.Len(t, files, 1)
	return files[0]
}

type zipEntry struct {
	name string
	data []byte
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := writer.CreateHeader(&zip.FileHeader{Name: entry.name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write(entry.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func buildDeflatedZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := writer.Create(entry.name)
		require.NoError(t, err)
		_, err = w.Write(entry.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

type fixture struct {
	db        *gorm.DB
	users     repository.UserRepository
	problems  repository.ProblemRepository
	sets      repository.ProblemSetRepository
	solutions repository.SolutionRepository
	comps     repository.CompetitionRepository
	store     *document.Store
	comp      models.Competition
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupServiceDB(t)
	f := &fixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		problems:  repository.NewProblemRepository(db),
		sets:      repository.NewProblemSetRepository(db),
		solutions: repository.NewSolutionRepository(db),
		comps:     repository.NewCompetitionRepository(db),
		store:     document.NewStore(t.TempDir(), t.TempDir()),
		comp:      models.Competition{Name: "Roots", Slug: "roots"},
	}
	require.NoError(t, db.Create(&f.comp).Error)
	return f
}

func (f *fixture) user(t *testing.T, username string, complete bool) models.User {
	t.Helper()
	user := models.User{Username: username, FirstName: username}
	require.NoError(t, f.users.Create(context.Background(), &user))
	if complete {
		school := models.School{Name: "School of " + username}
		require.NoError(t, f.db.Create(&school).Error)
		class, level := "3.A", models.ClassLevelS3
		require.NoError(t, f.users.SaveProfile(context.Background(), &models.UserProfile{
			UserID:      user.ID,
			SchoolID:    &school.ID,
			SchoolClass: &class,
			ClassLevel:  &level,
		}))
	}
	return user
}

func (f *fixture) problem(t *testing.T, id uint) models.Problem {
	t.Helper()
	problem := models.Problem{ID: id, Text: "Find all primes", CompetitionID: f.comp.ID}
	require.NoError(t, f.db.Create(&problem).Error)
	return problem
}

func (f *fixture) solution(t *testing.T, user models.User, problemID uint) models.UserSolution {
	t.Helper()
	solution := models.UserSolution{
		UserID:    user.ID,
		ProblemID: problemID,
		Solution:  document.SolutionPath(user.ID, problemID),
	}
	require.NoError(t, f.solutions.Save(context.Background(), &solution))
	return solution
}
