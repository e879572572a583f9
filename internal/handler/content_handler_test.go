package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/handler"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
	"github.com/noah-isme/roots-api/internal/service"
)

type contentEnv struct {
	app         *fiber.App
	db          *gorm.DB
	competition models.Competition
	event       models.Event
}

func newContentEnv(t *testing.T) *contentEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	competition := models.Competition{Name: "Roots", Slug: "roots"}
	require.NoError(t, db.Create(&competition).Error)
	event := models.Event{Name: "Camp", CompetitionID: competition.ID}
	require.NoError(t, db.Create(&event).Error)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	competitions := repository.NewCompetitionRepository(db)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	posts := service.NewPostService(repository.NewPostRepository(db), competitions, validate, activity, logger)
	galleries := service.NewGalleryService(repository.NewGalleryRepository(db), competitions, validate, activity, logger)
	classification := service.NewClassificationService(repository.NewProblemRepository(db), competitions, validate, activity, logger)

	app := fiber.New()
	public := handler.NewContentHandler(posts, galleries, logger)
	public.RegisterPosts(app.Group("/api/v1/posts", authenticated(9, "")))
	public.RegisterGalleries(app.Group("/api/v1/galleries", authenticated(9, "")))
	admin := app.Group("/api/admin", authenticated(1, "staff"))
	handler.NewAdminContentHandler(posts, galleries, logger).Register(admin)
	handler.NewAdminClassificationHandler(classification, logger).Register(admin)

	return &contentEnv{app: app, db: db, competition: competition, event: event}
}

func TestAdminPostLifecycle(t *testing.T) {
	env := newContentEnv(t)

	resp, payload := perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/posts", map[string]interface{}{
		"title":          "Round one results",
		"body":           "<p>Congratulations</p>",
		"competition_id": env.competition.ID,
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.PostResponse
	require.NoError(t, json.Unmarshal(payload.Data, &created))
	require.NotEmpty(t, created.Slug)

	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/posts", map[string]interface{}{"title": "Welcome"}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/posts?competition="+strconv.Itoa(int(env.competition.ID)), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page dto.PageResponse[dto.PostResponse]
	require.NoError(t, json.Unmarshal(payload.Data, &page))
	require.EqualValues(t, 2, page.Total)

	target := "/api/admin/posts/" + strconv.Itoa(int(created.ID))
	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPut, target, map[string]interface{}{"title": "Final results", "is_pinned": true}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = perform(t, env.app, httptest.NewRequest(http.MethodDelete, target, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+strconv.Itoa(int(created.ID)), nil))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "post not found", payload.Message)

	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/posts", map[string]interface{}{"title": ""}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var logged int64
	require.NoError(t, env.db.Model(&models.ActivityLog{}).Where("action = ?", service.ActionPostDeleted).Count(&logged).Error)
	require.EqualValues(t, 1, logged)
}

func TestAdminGalleryRejectsUnknownEvent(t *testing.T) {
	env := newContentEnv(t)

	resp, payload := perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/galleries", map[string]interface{}{
		"name":           "Day one",
		"competition_id": env.competition.ID,
		"event_id":       env.event.ID,
		"date":           "2024-07-03T00:00:00Z",
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.GalleryResponse
	require.NoError(t, json.Unmarshal(payload.Data, &created))

	resp, payload = perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/galleries", map[string]interface{}{
		"name":           "Lost",
		"competition_id": env.competition.ID,
		"event_id":       404,
		"date":           "2024-07-03T00:00:00Z",
	}))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "event not found", payload.Message)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/galleries?event="+strconv.Itoa(int(env.event.ID)), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page dto.PageResponse[dto.GalleryResponse]
	require.NoError(t, json.Unmarshal(payload.Data, &page))
	require.Len(t, page.Items, 1)
	require.Equal(t, created.ID, page.Items[0].ID)

	resp, _ = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/v1/galleries?event=camp", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminClassificationRoutes(t *testing.T) {
	env := newContentEnv(t)

	resp, payload := perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/severities", map[string]interface{}{
		"name":           "hard",
		"level":          3,
		"competition_id": env.competition.ID,
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var severity dto.SeverityResponse
	require.NoError(t, json.Unmarshal(payload.Data, &severity))

	resp, payload = perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/severities", map[string]interface{}{
		"name":           "hard",
		"level":          3,
		"competition_id": 404,
	}))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "competition not found", payload.Message)

	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/categories", map[string]interface{}{
		"name":           "geometry",
		"competition_id": env.competition.ID,
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodGet, "/api/admin/categories?competition="+strconv.Itoa(int(env.competition.ID)), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var categories []dto.CategoryResponse
	require.NoError(t, json.Unmarshal(payload.Data, &categories))
	require.Len(t, categories, 1)

	target := "/api/admin/severities/" + strconv.Itoa(int(severity.ID))
	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPut, target, map[string]interface{}{"name": "very hard"}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = perform(t, env.app, httptest.NewRequest(http.MethodDelete, target, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = perform(t, env.app, httptest.NewRequest(http.MethodDelete, target, nil))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "severity not found", payload.Message)

	resp, _ = perform(t, env.app, jsonRequest(t, http.MethodPost, "/api/admin/severities", map[string]interface{}{"name": "no level", "competition_id": env.competition.ID}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
