package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/pkg/logger"
)

type observation struct {
	method, path string
	status       int
}

type recordingMetrics struct {
	observed []observation
}

func (m *recordingMetrics) ObserveHTTP(method, path string, status int, _ time.Duration) {
	m.observed = append(m.observed, observation{method, path, status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	metrics := &recordingMetrics{}
	router := mux.NewRouter()
	router.Use(MetricsMiddleware(metrics))
	router.HandleFunc("/api/v1/reservations/{ref}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reservations/ABCD2345", nil))

	require.Len(t, metrics.observed, 1)
	assert.Equal(t, observation{http.MethodGet, "/api/v1/reservations/{ref}", http.StatusNotFound}, metrics.observed[0])
}

func TestRecover(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Recover(logger.NewNop()))
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
