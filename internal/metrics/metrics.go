package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит метрики Prometheus ядра оркестрации
type Metrics struct {
	Transitions      *prometheus.CounterVec
	AlertAttempts    *prometheus.CounterVec
	AlertOutcomes    *prometheus.CounterVec
	AlertLatency     *prometheus.HistogramVec
	AlertTargetMiss  *prometheus.CounterVec
	RoutingNoService prometheus.Counter
	DeletionOutcomes *prometheus.CounterVec
}

// New регистрирует метрики в переданном реестре; nil означает реестр по умолчанию
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incident_transitions_total",
			Help: "Total number of incident status transitions",
		}, []string{"to"}),
		AlertAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_delivery_attempts_total",
			Help: "Total number of alert delivery attempts",
		}, []string{"recipient_class"}),
		AlertOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_delivery_outcomes_total",
			Help: "Alert attempt outcomes by result",
		}, []string{"recipient_class", "result"}),
		AlertLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alert_delivery_latency_seconds",
			Help:    "Time from alert enqueue to final delivery outcome",
			Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 10, 30},
		}, []string{"recipient_class"}),
		AlertTargetMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_target_latency_missed_total",
			Help: "Alerts that reached a final state after their target latency",
		}, []string{"recipient_class"}),
		RoutingNoService: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routing_no_service_total",
			Help: "Routing runs that found no service within the maximum radius",
		}),
		DeletionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deletion_job_outcomes_total",
			Help: "Deletion job executions by result",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.Transitions,
		m.AlertAttempts,
		m.AlertOutcomes,
		m.AlertLatency,
		m.AlertTargetMiss,
		m.RoutingNoService,
		m.DeletionOutcomes,
	)
	return m
}

// NewNop возвращает метрики в отдельном реестре; удобно для тестов
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
