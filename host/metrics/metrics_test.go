package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAltText(t *testing.T) {
	m := New()
	m.RecordAltText(alttext.OutcomeFilled)
	m.RecordAltText(alttext.OutcomeFilled)
	m.RecordAltText(alttext.OutcomeExists)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.altText.WithLabelValues("filled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.altText.WithLabelValues("exists")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.altText.WithLabelValues("empty")))
}

func TestRecordRequestAndGauge(t *testing.T) {
	m := New()
	m.RecordRequest("edit", http.StatusOK, 15*time.Millisecond)
	m.RecordRequest("edit", http.StatusForbidden, time.Millisecond)
	m.RecordBackfill("updated")
	m.SetScheduled(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("edit", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("edit", "403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backfill.WithLabelValues("updated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.scheduled))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordAltText(alttext.OutcomeEmpty)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `wonderalt_alt_text_fills_total{outcome="empty"} 1`))
}
