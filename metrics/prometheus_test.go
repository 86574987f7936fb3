package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-instructor/pipeline"
)

func TestNewMetricsUsesOwnRegistry(t *testing.T) {
	// two instances in one process must not collide
	a := NewMetrics()
	b := NewMetrics()

	a.RecordUpload(2048)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.UploadsReceived))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UploadsReceived))
}

func TestObserveStage(t *testing.T) {
	m := NewMetrics()

	m.ObserveStage(pipeline.StageTranscribe, 120*time.Millisecond, nil)
	m.ObserveStage(pipeline.StageInstruct, time.Second, &pipeline.Error{Stage: pipeline.StageInstruct, Kind: pipeline.KindTimeout})
	m.ObserveStage(pipeline.StageInstruct, time.Second, errors.New("unclassified"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("instruct", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("instruct", "internal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("transcribe", "upstream")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
}

func TestSetBreakerStates(t *testing.T) {
	m := NewMetrics()
	m.SetBreakerStates(map[string]string{"transcription": "open", "chat": "closed"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("transcription")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("chat")))
}

func TestHTTPMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTPRequest("POST", "/upload-audio/", "502", 0.3)
	m.RecordHTTPError("POST", "/upload-audio/", "upstream")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/upload-audio/", "502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrors.WithLabelValues("POST", "/upload-audio/", "upstream")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordUpload(32000)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "voice_instructor_uploads_received_total 1")
	assert.Contains(t, body, "go_goroutines")
}
