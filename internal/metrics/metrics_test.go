package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/protesto/internal/core"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(nil)

	m.ImportFinished(core.StatusPartial, 2*time.Second)
	m.ImportFinished(core.StatusSuccess, time.Second)
	m.ImportFinished(core.StatusSuccess, time.Second)
	m.ImportRejected("decode_error")
	m.RecordsCounted(core.OutcomeProcessed, 7)
	m.RecordsCounted(core.OutcomeValidationError, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("PARTIAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsRejected.WithLabelValues("decode_error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues(core.OutcomeProcessed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RecordsTotal), "zero counts create no series")
}

func TestMetrics_Handler(t *testing.T) {
	m := New(nil)
	m.ImportFinished(core.StatusFailure, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `protest_imports_total{status="FAILURE"} 1`), body)
	assert.Contains(t, body, "protest_import_duration_seconds_bucket")
}
