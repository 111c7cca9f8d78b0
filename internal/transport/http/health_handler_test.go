package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindex/internal/config"
	"pindex/internal/services"
	"pindex/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	calc, err := services.NewCalculatorService(config.Default(), nil, logger)
	require.NoError(t, err)
	handler := NewHealthHandler(services.NewHealthService(config.AppVersion, calc, logger), logger)

	rec := httptest.NewRecorder()
	handler.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decodeJSON(t, rec)["status"])

	rec = httptest.NewRecorder()
	handler.StatusCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	body := decodeJSON(t, rec)
	assert.Equal(t, "empty", body["status"])
	assert.Equal(t, config.AppVersion, body["version"])

	_, err = calc.Load(context.Background(), strings.NewReader(testutil.ThreeYearPanel()), "three.csv")
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.StatusCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	body = decodeJSON(t, rec)
	assert.Equal(t, "ok", body["status"])
	dataset := body["dataset"].(map[string]interface{})
	assert.Equal(t, "three.csv", dataset["source"])
	assert.EqualValues(t, 6, dataset["observations"])
}
