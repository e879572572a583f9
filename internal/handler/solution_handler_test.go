package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/handler"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
	"github.com/noah-isme/roots-api/pkg/office"
)

type mockSolutionService struct {
	submittedBy models.User
	problemID   uint
	fileNames   []string
	response    dto.SubmissionResponse
	solution    dto.SolutionResponse
	err         error
}

func (m *mockSolutionService) Submit(_ context.Context, user models.User, problemID uint, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	m.submittedBy = user
	m.problemID = problemID
	for _, file := range files {
		m.fileNames = append(m.fileNames, file.Filename)
	}
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockSolutionService) Get(_ context.Context, viewer models.User, id uint) (dto.SolutionResponse, error) {
	if m.err != nil {
		return dto.SolutionResponse{}, m.err
	}
	return m.solution, nil
}

type mockUserService struct {
	users map[uint]models.User
}

func (m mockUserService) Get(_ context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, service.ErrUserNotFound
	}
	return user, nil
}

func newSolutionApp(svc *mockSolutionService) *fiber.App {
	users := mockUserService{users: map[uint]models.User{
		4: {ID: 4, Username: "alice"},
	}}
	app := fiber.New()
	group := app.Group("/api/v1/solutions", authenticated(4, "participant"))
	handler.NewSolutionHandler(svc, users, zerolog.Nop()).Register(group)
	return app
}

func TestSolutionHandlerSubmitReturnsWarningNotices(t *testing.T) {
	svc := &mockSolutionService{response: dto.SubmissionResponse{
		Solution: dto.SolutionResponse{ID: 9, UserID: 4, ProblemID: 3, Solution: "solutions/user-4/problem-3/solution.pdf"},
		Warnings: []string{"essay.docx: converting .doc .docx files to .pdf sometimes does not work properly, please check the result!"},
	}}
	app := newSolutionApp(svc)

	req := multipartRequest(t, http.MethodPost, "/api/v1/solutions", map[string]string{"problem": "3"},
		formFile{field: "solution", name: "page1.pdf", content: []byte("%PDF-1.4")},
		formFile{field: "solution", name: "essay.docx", content: []byte("doc")},
	)
	resp, payload := perform(t, app, req)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, payload.Success)
	require.Equal(t, "alice", svc.submittedBy.Username)
	require.Equal(t, uint(3), svc.problemID)
	require.Equal(t, []string{"page1.pdf", "essay.docx"}, svc.fileNames)
	require.Len(t, payload.Notices, 2)
	require.Equal(t, utils.NoticeSuccess, payload.Notices[0].Level)
	require.Equal(t, utils.NoticeWarning, payload.Notices[1].Level)
	require.Contains(t, payload.Notices[1].Message, "essay.docx")

	var data dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &data))
	require.Equal(t, "solutions/user-4/problem-3/solution.pdf", data.Solution.Solution)
}

func TestSolutionHandlerSubmitRequiresProblem(t *testing.T) {
	svc := &mockSolutionService{}
	app := newSolutionApp(svc)

	req := multipartRequest(t, http.MethodPost, "/api/v1/solutions", map[string]string{"problem": "abc"},
		formFile{field: "solution", name: "page1.pdf", content: []byte("%PDF-1.4")},
	)
	resp, payload := perform(t, app, req)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, payload.Success)
	require.Len(t, payload.Notices, 1)
	require.Empty(t, svc.fileNames)
}

func TestSolutionHandlerSubmitRejectsNonMultipart(t *testing.T) {
	app := newSolutionApp(&mockSolutionService{})

	resp, payload := perform(t, app, jsonRequest(t, http.MethodPost, "/api/v1/solutions", map[string]int{"problem": 3}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid form", payload.Message)
}

func TestSolutionHandlerSubmitIncompleteProfile(t *testing.T) {
	svc := &mockSolutionService{err: &service.IncompleteProfileError{Missing: []string{"school", "classlevel"}}}
	app := newSolutionApp(svc)

	req := multipartRequest(t, http.MethodPost, "/api/v1/solutions", map[string]string{"problem": "3"},
		formFile{field: "solution", name: "page1.pdf", content: []byte("%PDF-1.4")},
	)
	resp, payload := perform(t, app, req)

	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, []utils.Notice{{
		Level:   utils.NoticeError,
		Message: "User profile does not contain all required fields. Please update your profile.",
	}}, payload.Notices)

	var data struct {
		MissingFields []string `json:"missing_fields"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &data))
	require.Equal(t, []string{"school", "classlevel"}, data.MissingFields)
}

func TestSolutionHandlerSubmitErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "problem missing", err: service.ErrProblemNotFound, status: fiber.StatusNotFound},
		{name: "no files", err: service.ErrNoFiles, status: fiber.StatusBadRequest},
		{name: "conversion", err: &document.ConversionError{File: "scan.heic", Err: errors.New("unsupported")}, status: fiber.StatusUnprocessableEntity},
		{name: "validation", err: &service.ValidationError{Messages: []string{"solution already exists"}}, status: fiber.StatusBadRequest},
		{name: "too large", err: service.ErrUploadTooLarge, status: fiber.StatusRequestEntityTooLarge},
		{name: "locked", err: service.ErrLockNotAcquired, status: fiber.StatusConflict},
		{name: "unexpected", err: errors.New("disk full"), status: fiber.StatusInternalServerError},
		{name: "converter missing", err: fmt.Errorf("%w: soffice", office.ErrConverterUnavailable), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSolutionApp(&mockSolutionService{err: tc.err})
			req := multipartRequest(t, http.MethodPost, "/api/v1/solutions", map[string]string{"problem": "3"},
				formFile{field: "solution", name: "page1.pdf", content: []byte("%PDF-1.4")},
			)
			resp, payload := perform(t, app, req)
			require.Equal(t, tc.status, resp.StatusCode)
			require.False(t, payload.Success)
		})
	}
}

func TestSolutionHandlerGet(t *testing.T) {
	score := 7
	app := newSolutionApp(&mockSolutionService{solution: dto.SolutionResponse{ID: 9, UserID: 4, Score: &score}})

	resp, payload := perform(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/solutions/9", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data dto.SolutionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &data))
	require.Equal(t, 7, *data.Score)

	forbidden := newSolutionApp(&mockSolutionService{err: service.ErrForbidden})
	resp, _ = perform(t, forbidden, httptest.NewRequest(http.MethodGet, "/api/v1/solutions/9", nil))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = perform(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/solutions/abc", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSolutionHandlerUnknownUser(t *testing.T) {
	app := fiber.New()
	group := app.Group("/api/v1/solutions", authenticated(99, "participant"))
	handler.NewSolutionHandler(&mockSolutionService{}, mockUserService{}, zerolog.Nop()).Register(group)

	resp, _ := perform(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/solutions/1", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
