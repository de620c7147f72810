package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vemurivi/CareerShotApi/internal/register/models"
	dErrors "github.com/vemurivi/CareerShotApi/pkg/domain-errors"
	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

type stubService struct {
	registerFn func(ctx context.Context, sub *models.Submission) (*models.Result, error)
}

func (s *stubService) Register(ctx context.Context, sub *models.Submission) (*models.Result, error) {
	return s.registerFn(ctx, sub)
}

type stubReads struct {
	findFn func(ctx context.Context, partitionKey, rowKey string) (*models.Record, error)
	listFn func(ctx context.Context, partitionKey string) ([]*models.Record, error)
}

func (s *stubReads) FindByKey(ctx context.Context, partitionKey, rowKey string) (*models.Record, error) {
	return s.findFn(ctx, partitionKey, rowKey)
}

func (s *stubReads) ListByPartition(ctx context.Context, partitionKey string) ([]*models.Record, error) {
	return s.listFn(ctx, partitionKey)
}

type RegisterHandlerSuite struct {
	suite.Suite
}

func TestRegisterHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegisterHandlerSuite))
}

func (s *RegisterHandlerSuite) newRouter(service Service, reads ReadStore) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(service, reads, logger).Register(r)
	return r
}

// multipartBody builds a multipart/form-data body with the given form fields
// and file parts.
func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for fileName, payload := range files {
		part, err := w.CreateFormFile("files", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(payload))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *RegisterHandlerSuite) TestRegisterSuccess() {
	var captured *models.Submission
	service := &stubService{
		registerFn: func(_ context.Context, sub *models.Submission) (*models.Result, error) {
			captured = sub
			return &models.Result{
				PartitionKey: "A",
				RowKey:       "row-1",
				ObjectNames:  []string{"adalovelace.png"},
			}, nil
		},
	}
	router := s.newRouter(service, &stubReads{})

	body, contentType := multipartBody(s.T(),
		map[string]string{
			"name":        "Ada Lovelace",
			"description": "Analyst",
			"linkedin":    "https://linkedin.com/in/ada",
			"github":      "https://github.com/ada",
			"skills":      `{"Languages":[{"name":"C","level":"Expert"}]}`,
		},
		map[string]string{"photo.png": "fake image bytes"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Idempotency-Key", "req-42")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)
	var resp models.Result
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "A", resp.PartitionKey)
	assert.Equal(s.T(), "row-1", resp.RowKey)
	assert.Equal(s.T(), []string{"adalovelace.png"}, resp.ObjectNames)

	require.NotNil(s.T(), captured)
	assert.Equal(s.T(), "Ada Lovelace", captured.Name)
	assert.Equal(s.T(), "req-42", captured.IdempotencyKey)
	assert.Equal(s.T(), "Expert", captured.Skills["Languages"][0].Level)
	require.Len(s.T(), captured.Files, 1)
	assert.Equal(s.T(), "photo.png", captured.Files[0].FileName)
}

func (s *RegisterHandlerSuite) TestRegisterRejectsNonMultipart() {
	called := false
	service := &stubService{
		registerFn: func(context.Context, *models.Submission) (*models.Result, error) {
			called = true
			return nil, nil
		},
	}
	router := s.newRouter(service, &stubReads{})

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte(`{"name":"Ada"}`)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.False(s.T(), called, "service must not run for a non-multipart request")

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeValidation), resp["error"])
}

func (s *RegisterHandlerSuite) TestRegisterRejectsMalformedSkills() {
	service := &stubService{
		registerFn: func(context.Context, *models.Submission) (*models.Result, error) {
			s.Fail("service must not run")
			return nil, nil
		},
	}
	router := s.newRouter(service, &stubReads{})

	body, contentType := multipartBody(s.T(),
		map[string]string{"name": "Ada", "skills": "not-json"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *RegisterHandlerSuite) TestRegisterValidationFailureBody() {
	service := &stubService{
		registerFn: func(context.Context, *models.Submission) (*models.Result, error) {
			return nil, &models.StageError{
				Stage: models.StageReceived,
				Err:   dErrors.New(dErrors.CodeValidation, "name is required"),
			}
		},
	}
	router := s.newRouter(service, &stubReads{})

	body, contentType := multipartBody(s.T(), map[string]string{"name": ""}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp RegisterFailureResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeValidation), resp.Error)
	assert.Equal(s.T(), string(models.StageReceived), resp.Stage)
	assert.Contains(s.T(), resp.ErrorDescription, "name is required")
}

func (s *RegisterHandlerSuite) TestRegisterPartialFailureBody() {
	service := &stubService{
		registerFn: func(context.Context, *models.Submission) (*models.Result, error) {
			return nil, &models.StageError{
				Stage:   models.StageObjectsWritten,
				Written: 1,
				Total:   3,
				Err:     dErrors.Wrap(dErrors.CodeUnavailable, "object write failed", sentinel.ErrUnavailable),
			}
		},
	}
	router := s.newRouter(service, &stubReads{})

	body, contentType := multipartBody(s.T(),
		map[string]string{"name": "Ada"}, map[string]string{"a.png": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusServiceUnavailable, w.Code)
	var resp RegisterFailureResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(models.StageObjectsWritten), resp.Stage)
	assert.Equal(s.T(), 1, resp.ObjectsWritten)
	assert.Equal(s.T(), 3, resp.ObjectsTotal)
}

func (s *RegisterHandlerSuite) TestGetRecord() {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reads := &stubReads{
		findFn: func(_ context.Context, partitionKey, rowKey string) (*models.Record, error) {
			assert.Equal(s.T(), "A", partitionKey)
			assert.Equal(s.T(), "row-1", rowKey)
			return &models.Record{
				PartitionKey:   "A",
				RowKey:         "row-1",
				Name:           "Ada Lovelace",
				SkillsEncoded:  `{"Languages":[{"name":"C","level":"Expert"}]}`,
				FileExtensions: []string{".png"},
				CreatedAt:      created,
				ETag:           "W/1",
			}, nil
		},
	}
	router := s.newRouter(&stubService{}, reads)

	req := httptest.NewRequest(http.MethodGet, "/api/register/A/row-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)
	var resp RecordResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Ada Lovelace", resp.Name)
	assert.Equal(s.T(), []string{"adalovelace.png"}, resp.Objects)
	assert.Equal(s.T(), "Expert", resp.Skills["Languages"][0].Level)
	assert.True(s.T(), created.Equal(resp.CreatedAt))
}

func (s *RegisterHandlerSuite) TestGetRecordNotFound() {
	reads := &stubReads{
		findFn: func(context.Context, string, string) (*models.Record, error) {
			return nil, sentinel.ErrNotFound
		},
	}
	router := s.newRouter(&stubService{}, reads)

	req := httptest.NewRequest(http.MethodGet, "/api/register/A/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *RegisterHandlerSuite) TestListPartition() {
	reads := &stubReads{
		listFn: func(_ context.Context, partitionKey string) ([]*models.Record, error) {
			assert.Equal(s.T(), "A", partitionKey)
			return []*models.Record{
				{PartitionKey: "A", RowKey: "row-1", Name: "Ada Lovelace"},
				{PartitionKey: "A", RowKey: "row-2", Name: "Alan Turing"},
			}, nil
		},
	}
	router := s.newRouter(&stubService{}, reads)

	req := httptest.NewRequest(http.MethodGet, "/api/register/A", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "A", resp.PartitionKey)
	require.Len(s.T(), resp.Records, 2)
	assert.Equal(s.T(), "Alan Turing", resp.Records[1].Name)
}

func (s *RegisterHandlerSuite) TestListPartitionEmpty() {
	reads := &stubReads{
		listFn: func(context.Context, string) ([]*models.Record, error) {
			return nil, nil
		},
	}
	router := s.newRouter(&stubService{}, reads)

	req := httptest.NewRequest(http.MethodGet, "/api/register/Z", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(s.T(), resp.Records)
	assert.Empty(s.T(), resp.Records)
}
