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
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("POST /api/combos", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest("POST /api/combos", http.StatusOK, 7*time.Millisecond)
	m.ObserveRequest("POST /api/combos", http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("POST /api/combos", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST /api/combos", "400")))
}

func TestIncInexact(t *testing.T) {
	m := New()
	m.IncInexact()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inexactLoading))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET /api/health", http.StatusOK, time.Millisecond)
	m.ObserveResult("combos", 4)
	m.IncInexact()
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveResult("weight_space", 81)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "plate_calculator_result_size"))
}
