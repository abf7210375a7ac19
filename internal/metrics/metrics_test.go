package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestObserveAllocation_Outcomes(t *testing.T) {
	m := newMetrics(prometheus.NewRegistry())

	m.ObserveAllocation("QUOTE", nil)
	m.ObserveAllocation("QUOTE", nil)
	m.ObserveAllocation("INVOICE", gorm.ErrDuplicatedKey)
	m.ObserveAllocation("INVOICE", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.numberAllocations.WithLabelValues("QUOTE", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.numberAllocations.WithLabelValues("INVOICE", OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.numberAllocations.WithLabelValues("INVOICE", OutcomeError)))
}

func TestObserveTransition_SplitsIgnoredEvents(t *testing.T) {
	m := newMetrics(prometheus.NewRegistry())

	m.ObserveTransition("QUOTE_LINKED", "SOW", "QUOTATION", true)
	m.ObserveTransition("SOW_SUBMITTED", "INVOICE", "INVOICE", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageTransitions.WithLabelValues("QUOTE_LINKED", "SOW", "QUOTATION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageIgnored.WithLabelValues("SOW_SUBMITTED")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAllocation("QUOTE", nil)
		m.IncAllocationRetry()
		m.ObserveTransition("x", "a", "b", true)
		m.IncExternalFailure(DependencyAI)
		m.ObserveRequest("/", http.MethodGet, 200, time.Millisecond)
		m.ObserveJob("job", time.Second, nil)
	})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.IncExternalFailure(DependencyEmail)
	m.ObserveRequest("/api/v1/projects", http.MethodGet, 404, 10*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(body, `urops_external_failures_total{dependency="email"} 1`))
	assert.True(t, strings.Contains(body, `urops_http_requests_total{method="GET",route="/api/v1/projects",status="4xx"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
