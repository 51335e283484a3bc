// Package metrics exposes prometheus collectors for the analysis and
// progression paths. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vibenote"

// Metrics holds the server's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	analyses      *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	crises        prometheus.Counter
	points        *prometheus.CounterVec
	achievements  *prometheus.CounterVec
	rewards       *prometheus.CounterVec
	insightTasks  *prometheus.CounterVec
	completionDur *prometheus.HistogramVec
	hubClients    prometheus.Gauge
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses served, by operation and source (remote or local).",
		}, []string{"op", "source"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_fallbacks_total",
			Help:      "Remote analyses replaced by local analysis, by operation and reason.",
		}, []string{"op", "reason"}),
		crises: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crisis_detections_total",
			Help:      "Chat messages answered with the crisis safety response.",
		}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points awarded, by transaction type.",
		}, []string{"type"}),
		achievements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievements completed, by achievement id.",
		}, []string{"achievement"}),
		rewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_unlocked_total",
			Help:      "Rewards unlocked, by reward id.",
		}, []string{"reward"}),
		insightTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_tasks_total",
			Help:      "Background insight tasks, by outcome.",
		}, []string{"outcome"}),
		completionDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Completion API call latency, by operation.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"op"}),
		hubClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_clients",
			Help:      "Connected websocket event clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses, m.fallbacks, m.crises, m.points, m.achievements,
		m.rewards, m.insightTasks, m.completionDur, m.hubClients,
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Analysis(op, source string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(op, source).Inc()
}

func (m *Metrics) Fallback(op, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) CrisisDetected() {
	if m == nil {
		return
	}
	m.crises.Inc()
}

func (m *Metrics) CompletionDuration(op string, seconds float64) {
	if m == nil {
		return
	}
	m.completionDur.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) PointsAwarded(txType string, points int) {
	if m == nil || points <= 0 {
		return
	}
	m.points.WithLabelValues(txType).Add(float64(points))
}

func (m *Metrics) AchievementUnlocked(id string) {
	if m == nil {
		return
	}
	m.achievements.WithLabelValues(id).Inc()
}

func (m *Metrics) RewardUnlocked(id string) {
	if m == nil {
		return
	}
	m.rewards.WithLabelValues(id).Inc()
}

func (m *Metrics) InsightTask(outcome string) {
	if m == nil {
		return
	}
	m.insightTasks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetEventClients(n int) {
	if m == nil {
		return
	}
	m.hubClients.Set(float64(n))
}
