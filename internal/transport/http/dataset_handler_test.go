package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pindex/internal/config"
	apperrors "pindex/internal/errors"
	"pindex/internal/infrastructure"
	"pindex/internal/services"
	"pindex/internal/shared/testutil"
)

// MockCalculatorService is a mock implementation of CalculatorService
type MockCalculatorService struct {
	mock.Mock
}

func (m *MockCalculatorService) Load(ctx context.Context, src io.Reader, source string) (*services.Snapshot, error) {
	args := m.Called(ctx, src, source)
	snap, _ := args.Get(0).(*services.Snapshot)
	return snap, args.Error(1)
}

func (m *MockCalculatorService) State() *services.Snapshot {
	return m.Called().Get(0).(*services.Snapshot)
}

func (m *MockCalculatorService) Reset() { m.Called() }

func (m *MockCalculatorService) WriteRatios(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockCalculatorService) WriteIndices(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockCalculatorService) WriteWorkbook(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

type handlerFixture struct {
	calc   *services.CalculatorService
	router chi.Router
	logs   *testutil.BufferedSlogHandler
}

func newHandlerFixture(t *testing.T, mutate ...func(*DatasetHandlerOptions)) *handlerFixture {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	cfg := config.Default()
	calc, err := services.NewCalculatorService(cfg, nil, logger)
	require.NoError(t, err)

	opts := DatasetHandlerOptions{MaxUploadBytes: cfg.Server.MaxUploadBytes, Export: cfg.Export}
	for _, m := range mutate {
		m(&opts)
	}
	errorHandler := apperrors.NewErrorHandler(logger, false, infrastructure.GetTraceID)
	handler := NewDatasetHandler(calc, opts, logger, errorHandler)
	return &handlerFixture{calc: calc, router: handler.Routes(), logs: logs}
}

func (f *handlerFixture) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) upload(t *testing.T, content string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/dataset?name=panel.csv", strings.NewReader(content), "text/csv")
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDatasetHandler_UploadValid(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.upload(t, testutil.MixedSpans())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	body := decodeJSON(t, rec)
	assert.NotContains(t, body, "message")
	assert.Empty(t, body["errors"])

	dataset := body["dataset"].(map[string]interface{})
	assert.Equal(t, true, dataset["valid"])
	assert.Equal(t, "panel.csv", dataset["source"])
	assert.EqualValues(t, 33, dataset["results"])

	panels := body["panels"].([]interface{})
	require.Len(t, panels, 2)
	assert.Equal(t, "Panel_3", panels[0].(map[string]interface{})["name"])
	assert.Equal(t, "Panel_2", panels[1].(map[string]interface{})["name"])

	testutil.AssertLogContains(t, f.logs, slog.LevelInfo, "dataset uploaded")
}

func TestDatasetHandler_UploadInvalid(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.upload(t, testutil.BlankPersonOnLine5())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "The panel is not valid. Please fix errors in file and load it again", body["message"])

	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, services.ErrorSourceDataset, first["source"])
	assert.Contains(t, first["message"], "line (5)")
	assert.Empty(t, body["panels"])
}

func TestDatasetHandler_UploadMultipart(t *testing.T) {
	f := newHandlerFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, "three.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, testutil.ThreeYearPanel())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := f.do(t, http.MethodPost, "/dataset", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dataset := decodeJSON(t, rec)["dataset"].(map[string]interface{})
	assert.Equal(t, "three.csv", dataset["source"])
	assert.EqualValues(t, 11, dataset["results"])
}

func TestDatasetHandler_UploadFailures(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		maxBytes    int64
		status      int
		problemType string
	}{
		{
			name:        "unparsable year",
			body:        testutil.ObservationsFile(`abc;"IT";h1;A;1;0.5`),
			contentType: "text/csv",
			status:      http.StatusUnprocessableEntity,
			problemType: apperrors.TypeDatasetLoad,
		},
		{
			name:        "header only",
			body:        testutil.ObservationsFile(),
			contentType: "text/plain",
			status:      http.StatusUnprocessableEntity,
			problemType: apperrors.TypeDatasetLoad,
		},
		{
			name:        "unsupported media type",
			body:        testutil.ThreeYearPanel(),
			contentType: "application/json",
			status:      http.StatusUnsupportedMediaType,
		},
		{
			name:        "multipart without file field",
			body:        "--x\r\nContent-Disposition: form-data; name=\"other\"\r\n\r\nv\r\n--x--\r\n",
			contentType: "multipart/form-data; boundary=x",
			status:      http.StatusBadRequest,
			problemType: apperrors.TypeValidation,
		},
		{
			name:        "body too large",
			body:        testutil.MixedSpans(),
			contentType: "text/csv",
			maxBytes:    16,
			status:      http.StatusRequestEntityTooLarge,
			problemType: apperrors.TypePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t, func(o *DatasetHandlerOptions) {
				if tt.maxBytes > 0 {
					o.MaxUploadBytes = tt.maxBytes
				}
			})

			rec := f.do(t, http.MethodPost, "/dataset", strings.NewReader(tt.body), tt.contentType)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.problemType != "" {
				assert.Equal(t, tt.problemType, decodeJSON(t, rec)["type"])
			}
			assert.False(t, f.calc.State().HasDataset())
		})
	}
}

func TestDatasetHandler_UploadLimiterWrapsUploadOnly(t *testing.T) {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	f := newHandlerFixture(t, func(o *DatasetHandlerOptions) { o.UploadLimiter = blocked })

	rec := f.upload(t, testutil.ThreeYearPanel())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = f.do(t, http.MethodGet, "/dataset", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDatasetHandler_Listings(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.upload(t, testutil.MixedSpans()).Code)
	runID := f.calc.State().RunID

	tests := []struct {
		path  string
		count int
	}{
		{"/observations", 10},
		{"/people", 4},
		{"/ratios", 3},
		{"/errors", 0},
		{"/panels", 2},
		{"/indices", 33},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, nil, "")
			require.Equal(t, http.StatusOK, rec.Code)

			body := decodeJSON(t, rec)
			assert.Equal(t, runID, body["run_id"])
			assert.EqualValues(t, tt.count, body["count"])
			assert.Len(t, body["items"], tt.count)
		})
	}
}

func TestDatasetHandler_People(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.upload(t, testutil.ThreeYearPanel()).Code)

	rec := f.do(t, http.MethodGet, "/people", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse[PersonView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)

	a := body.Items[0]
	assert.Equal(t, "A", a.PersonID)
	assert.Equal(t, "IT", a.Country)
	assert.Equal(t, 3, a.YearSpan)
	assert.True(t, a.EverPoor)
	assert.Equal(t, 1, a.SpellCount)
	assert.Equal(t, 3, a.MaxSpell)
	assert.InDelta(t, 0.5, a.PovertyGapAverage, 1e-9)

	b := body.Items[1]
	assert.Equal(t, "B", b.PersonID)
	assert.False(t, b.EverPoor)
	assert.Zero(t, b.SpellCount)
}

func TestDatasetHandler_EmptyListings(t *testing.T) {
	f := newHandlerFixture(t)

	for _, path := range []string{"/observations", "/people", "/ratios", "/errors", "/panels", "/indices"} {
		rec := f.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decodeJSON(t, rec)
		assert.EqualValues(t, 0, body["count"], path)
		assert.NotNil(t, body["items"], path)
	}
}

func TestDatasetHandler_IndicesFilters(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.upload(t, testutil.MixedSpans()).Code)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"wave count 3", "?wave_count=3", http.StatusOK, 11},
		{"wave count 2", "?wave_count=2", http.StatusOK, 22},
		{"alpha", "?alpha=0.3", http.StatusOK, 3},
		{"person", "?person_id=C", http.StatusOK, 11},
		{"combined", "?wave_count=2&alpha=1&person_id=D", http.StatusOK, 1},
		{"unknown country", "?country=FR", http.StatusOK, 0},
		{"wave count too small", "?wave_count=1", http.StatusBadRequest, 0},
		{"wave count not a number", "?wave_count=two", http.StatusBadRequest, 0},
		{"alpha out of range", "?alpha=1.5", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/indices"+tt.query, nil, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			body := decodeJSON(t, rec)
			if tt.status != http.StatusOK {
				assert.Equal(t, apperrors.TypeValidation, body["type"])
				return
			}
			assert.EqualValues(t, tt.count, body["count"])
		})
	}
}

func TestDatasetHandler_ResetAndStatus(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.upload(t, testutil.ThreeYearPanel()).Code)

	rec := f.do(t, http.MethodGet, "/dataset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["dataset"].(map[string]interface{})["loaded"])

	rec = f.do(t, http.MethodDelete, "/dataset", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.calc.State().HasDataset())

	rec = f.do(t, http.MethodGet, "/dataset", nil, "")
	assert.Equal(t, false, decodeJSON(t, rec)["dataset"].(map[string]interface{})["loaded"])
}

func TestDatasetHandler_Exports(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/exports/ratios", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.TypeNotFound, decodeJSON(t, rec)["type"])

	require.Equal(t, http.StatusCreated, f.upload(t, testutil.ThreeYearPanel()).Code)

	tests := []struct {
		path        string
		disposition string
		contentType string
		firstLine   string
	}{
		{"/exports/ratios", `attachment; filename="PPProbs.txt"`, "text/plain", "Country;LowYear;HighYear"},
		{"/exports/indices", `attachment; filename="PIndices.txt"`, "text/plain", "WaveCount;Country;PersonId"},
		{"/exports/workbook", `attachment; filename="pindex.xlsx"`, "spreadsheetml", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, nil, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.disposition, rec.Header().Get("Content-Disposition"))
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Equal(t, rec.Body.Len(), mustAtoi(t, rec.Header().Get("Content-Length")))
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.firstLine), rec.Body.String())
		})
	}
}

func TestDatasetHandler_WithMockService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apperrors.NewErrorHandler(logger, false, infrastructure.GetTraceID)

	t.Run("load error is rendered as problem", func(t *testing.T) {
		calc := new(MockCalculatorService)
		calc.On("Load", mock.Anything, mock.Anything, "upload").
			Return(nil, apperrors.NewLoadError(errors.New("boom")))

		router := NewDatasetHandler(calc, DatasetHandlerOptions{}, logger, errorHandler).Routes()
		req := httptest.NewRequest(http.MethodPost, "/dataset", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "boom")
		calc.AssertExpectations(t)
	})

	t.Run("export failure after partial write", func(t *testing.T) {
		calc := new(MockCalculatorService)
		calc.On("WriteIndices", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(1).(io.Writer), "partial")
			}).
			Return(apperrors.NewStorageError("write poverty indices", errors.New("disk full")))

		router := NewDatasetHandler(calc, DatasetHandlerOptions{}, logger, errorHandler).Routes()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/indices", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "partial")
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
		calc.AssertExpectations(t)
	})
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
