package handler_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/handler"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

type adminSolutionEnv struct {
	app       *fiber.App
	db        *gorm.DB
	store     *document.Store
	solutions repository.SolutionRepository
	staff     models.User
	alice     models.User
}

func newAdminSolutionEnv(t *testing.T) *adminSolutionEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zerolog.Nop()
	users := repository.NewUserRepository(db)
	solutions := repository.NewSolutionRepository(db)
	competitions := repository.NewCompetitionRepository(db)
	store := document.NewStore(t.TempDir(), t.TempDir())
	locker := service.NewLocalSolutionLocker()
	events := service.NewEventPublisher(nil, nil, "", logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	competition := models.Competition{Name: "Roots", Slug: "roots"}
	require.NoError(t, db.Create(&competition).Error)
	staff := models.User{Username: "rootsadmin", IsStaff: true}
	alice := models.User{Username: "alice", FirstName: "Alice"}
	require.NoError(t, db.Create(&staff).Error)
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&models.Problem{ID: 5, Text: "Find all primes", CompetitionID: competition.ID}).Error)
	require.NoError(t, solutions.Save(context.Background(), &models.UserSolution{
		UserID:    alice.ID,
		ProblemID: 5,
		Solution:  document.SolutionPath(alice.ID, 5),
	}))

	seasons := service.NewSeasonService(competitions, solutions, users, "roots")
	adminService := service.NewAdminSolutionService(solutions, seasons, locker, events, validator.New(validator.WithRequiredStructEnabled()), activity, logger)
	importer := service.NewCorrectionImportService(users, solutions, store, locker, events, activity, 0, logger)

	app := fiber.New()
	group := app.Group("/api/admin/solutions", authenticated(staff.ID, "staff"))
	handler.NewAdminSolutionHandler(adminService, importer, 1<<20, logger).Register(group)

	return &adminSolutionEnv{app: app, db: db, store: store, solutions: solutions, staff: staff, alice: alice}
}

func zipArchive(t *testing.T, entries map[string][]byte, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := writer.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestAdminSolutionImportReportsEveryEntry(t *testing.T) {
	env := newAdminSolutionEnv(t)

	corrected := []byte("%PDF-1.4 corrected by hand")
	archive := zipArchive(t, map[string][]byte{
		"7-alice-5.pdf":  corrected,
		"3-nobody-5.pdf": []byte("%PDF-1.4"),
		"notes.txt":      []byte("ignored"),
	}, "7-alice-5.pdf", "3-nobody-5.pdf", "notes.txt")

	req := multipartRequest(t, http.MethodPost, "/api/admin/solutions/import", nil,
		formFile{field: "zipfile", name: "corrections.zip", content: archive})
	resp, payload := perform(t, env.app, req)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []utils.Notice{
		{Level: utils.NoticeSuccess, Message: "Solution of alice for problem #5 assigned 7 points"},
		{Level: utils.NoticeError, Message: "User nobody does not exist"},
	}, payload.Notices)

	var report dto.ImportReportResponse
	require.NoError(t, json.Unmarshal(payload.Data, &report))
	require.Len(t, report.Successes, 1)
	require.Equal(t, "3-nobody-5.pdf", report.Errors[0].Entry)
	require.Empty(t, report.Aborted)

	solution, err := env.solutions.GetByUserAndProblem(context.Background(), env.alice.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 7, *solution.Score)
	require.Equal(t, env.staff.ID, *solution.CorrectedByID)

	stored, err := os.ReadFile(filepath.Join(env.store.Root(), document.CorrectedSolutionPath(env.alice.ID, 5)))
	require.NoError(t, err)
	require.Equal(t, corrected, stored)
}

func TestAdminSolutionImportMatchesContract(t *testing.T) {
	env := newAdminSolutionEnv(t)

	schemaPath, err := filepath.Abs(filepath.Join("testdata", "import_report.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	archive := zipArchive(t, map[string][]byte{
		"10-alice-5.pdf": []byte("%PDF-1.4"),
		"bad-entry.pdf":  []byte("%PDF-1.4"),
	}, "10-alice-5.pdf", "bad-entry.pdf")

	req := multipartRequest(t, http.MethodPost, "/api/admin/solutions/import", nil,
		formFile{field: "zipfile", name: "corrections.zip", content: archive})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var instance interface{}
	require.NoError(t, json.Unmarshal(body, &instance))
	require.NoError(t, schema.Validate(instance))
}

func TestAdminSolutionImportFormValidation(t *testing.T) {
	env := newAdminSolutionEnv(t)

	resp, payload := perform(t, env.app, multipartRequest(t, http.MethodPost, "/api/admin/solutions/import", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "zipfile: This field is required.", payload.Notices[0].Message)

	resp, payload = perform(t, env.app, multipartRequest(t, http.MethodPost, "/api/admin/solutions/import", nil,
		formFile{field: "zipfile", name: "corrections.zip", content: []byte("%PDF-1.4 not an archive")}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "zipfile: The uploaded file is not a zip archive.", payload.Notices[0].Message)
}

func TestAdminSolutionImportRejectsCorruptContainer(t *testing.T) {
	env := newAdminSolutionEnv(t)

	archive := zipArchive(t, map[string][]byte{"7-alice-5.pdf": []byte("%PDF-1.4")}, "7-alice-5.pdf")
	truncated := archive[:len(archive)-10]

	resp, payload := perform(t, env.app, multipartRequest(t, http.MethodPost, "/api/admin/solutions/import", nil,
		formFile{field: "zipfile", name: "corrections.zip", content: truncated}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "corrupt archive", payload.Message)

	solution, err := env.solutions.GetByUserAndProblem(context.Background(), env.alice.ID, 5)
	require.NoError(t, err)
	require.Nil(t, solution.Score)
}

func TestAdminSolutionCorrectAndList(t *testing.T) {
	env := newAdminSolutionEnv(t)
	solution, err := env.solutions.GetByUserAndProblem(context.Background(), env.alice.ID, 5)
	require.NoError(t, err)

	target := "/api/admin/solutions/" + strconv.FormatUint(uint64(solution.ID), 10) + "/correction"
	resp, payload := perform(t, env.app, jsonRequest(t, http.MethodPatch, target, map[string]interface{}{
		"score": 4,
		"note":  "<b>Missing</b> the case n = 2",
	}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var corrected dto.SolutionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &corrected))
	require.Equal(t, 4, *corrected.Score)
	require.Equal(t, "Missing the case n = 2", corrected.Note)

	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPatch, target, map[string]interface{}{"note": "no score"}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/admin/solutions?q=ali&problem=5", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []dto.SolutionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &listed))
	require.Len(t, listed, 1)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/admin/solutions/filters", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var filters []dto.FilterResponse
	require.NoError(t, json.Unmarshal(payload.Data, &filters))
	require.Len(t, filters, 2)
	require.Equal(t, "current_season_user", filters[0].Parameter)
	require.Empty(t, filters[0].Options)
}
