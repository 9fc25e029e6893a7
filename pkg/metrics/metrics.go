package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics prometheus-коллекторы сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBQueryErrors      *prometheus.CounterVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	ReservationsTotal  *prometheus.CounterVec
	HoldsExpiredTotal  prometheus.Counter
	NLPRequestsTotal   *prometheus.CounterVec
	NLPRequestDuration prometheus.Histogram
	ConversationTurns  *prometheus.CounterVec
}

// New создает коллекторы и регистрирует их в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer как New, но с явным registerer (для тестов)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: labels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: labels,
		}, []string{"operation"}),
		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of open database connections",
			ConstLabels: labels,
		}, []string{"db"}),
		DBInUseConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of database connections in use",
			ConstLabels: labels,
		}, []string{"db"}),
		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}, []string{"db"}),
		ReservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservations_total",
			Help:        "Reservation attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		HoldsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "reservation_holds_expired_total",
			Help:        "Pending holds released after expiry",
			ConstLabels: labels,
		}),
		NLPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nlp_requests_total",
			Help:        "NLP backend calls by result",
			ConstLabels: labels,
		}, []string{"result"}),
		NLPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "nlp_request_duration_seconds",
			Help:        "NLP backend call duration in seconds",
			ConstLabels: labels,
			Buckets:     []float64{.05, .1, .25, .5, 1, 2, 5},
		}),
		ConversationTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "conversation_turns_total",
			Help:        "Conversation turns by resulting state",
			ConstLabels: labels,
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBWaitCount,
		m.ReservationsTotal,
		m.HoldsExpiredTotal,
		m.NLPRequestsTotal,
		m.NLPRequestDuration,
		m.ConversationTurns,
	)

	return m
}

// ObserveHTTP записывает длительность и статус HTTP-запроса
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveQuery реализует dbmetrics.Recorder
func (m *Metrics) ObserveQuery(_ string, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil && err != sql.ErrNoRows {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetPoolStats реализует dbmetrics.Recorder
func (m *Metrics) SetPoolStats(service string, stats sql.DBStats) {
	m.DBOpenConnections.WithLabelValues(service).Set(float64(stats.OpenConnections))
	m.DBInUseConnections.WithLabelValues(service).Set(float64(stats.InUse))
	m.DBWaitCount.WithLabelValues(service).Set(float64(stats.WaitCount))
}

func (m *Metrics) RecordReservation(outcome string) {
	m.ReservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordHoldsExpired(n int) {
	m.HoldsExpiredTotal.Add(float64(n))
}

func (m *Metrics) RecordNLP(result string, duration time.Duration) {
	m.NLPRequestsTotal.WithLabelValues(result).Inc()
	m.NLPRequestDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordTurn(state string) {
	m.ConversationTurns.WithLabelValues(state).Inc()
}
