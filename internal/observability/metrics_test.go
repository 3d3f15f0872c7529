package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/tasks/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"tsk_a", "tsk_b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/tasks/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestsTotal))
}

func TestRecorders(t *testing.T) {
	m := NewMetrics()

	m.RecordAuthFailure("revoked")
	m.RecordAuthFailure("revoked")
	m.RecordSessionIssued()
	m.RecordNotification("welcome", nil)
	m.RecordNotification("welcome", errors.New("smtp down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("revoked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("welcome", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("welcome", "failed")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.RecordSessionIssued()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "taskmanager_sessions_issued_total 1"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAuthFailure("revoked")
		m.RecordSessionIssued()
		m.RecordNotification("welcome", errors.New("smtp down"))
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	rr = httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
