package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verifylens/internal/models"
	"verifylens/shared/logging"
)

func TestMonitorInitialState(t *testing.T) {
	m := NewMonitor(logging.Discard())

	assert.True(t, m.IsHealthy())
	assert.Equal(t, "No analyses yet", m.GetStatusSummary())
}

func TestRecordAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		analysis *models.Analysis
		healthy  bool
		failures int
	}{
		{
			name: "all stages succeeded",
			analysis: &models.Analysis{MediaType: "text", Stages: []models.StageResult{
				{Stage: "Content Analysis", Content: "ok"},
				{Stage: "Verification", Content: "ok"},
			}},
			healthy: true,
		},
		{
			name: "a stage without content",
			analysis: &models.Analysis{MediaType: "audio", Stages: []models.StageResult{
				{Stage: "Transcription", Content: "ok"},
				{Stage: "Voice Analysis", Error: "Invalid response format"},
			}},
			healthy: true,
		},
		{
			name:     "bad user input",
			analysis: &models.Analysis{Failure: models.FailureValidation, Error: "File processing failed"},
			healthy:  true,
		},
		{
			name:     "upload exhausted",
			analysis: &models.Analysis{Failure: models.FailureUpload, Error: "File processing failed"},
			healthy:  false,
			failures: 1,
		},
		{
			name:     "model error",
			analysis: &models.Analysis{Failure: models.FailureAnalysis, Error: "Analysis error: boom"},
			healthy:  false,
			failures: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(logging.Discard())
			m.RecordAnalysis(tt.analysis, time.Second)

			assert.Equal(t, tt.healthy, m.IsHealthy())
			analyses, failures := m.Counts()
			assert.Equal(t, 1, analyses)
			assert.Equal(t, tt.failures, failures)
		})
	}
}

func TestMonitorRecoversAfterSuccess(t *testing.T) {
	m := NewMonitor(logging.Discard())

	m.RecordCriticalFailure(errors.New("upload failed"), time.Second)
	assert.False(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "upload failed")

	m.RecordSuccess("text analysis", time.Second)
	assert.True(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "Last analysis:")
}

func TestHealthHandler(t *testing.T) {
	m := NewMonitor(logging.Discard())
	handler := HealthHandler(m)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var health HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)

	m.RecordCriticalFailure(errors.New("model unreachable"), time.Second)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, 1, health.Failures)
}
