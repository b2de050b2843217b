package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeAppended  = "appended"
	OutcomeMalformed = "malformed"
)

// Recorder collects the companion's operational counters.
type Recorder interface {
	IncTurns(outcome string)
	ObserveTurnDuration(duration time.Duration)
	IncCrisisDetections()
	IncMoodAnalyses(outcome string)
	IncStorageWarnings(slot string)
	IncRemindersFired()
	Handler() http.Handler
}

// Provider is the Prometheus-backed Recorder.
type Provider struct {
	registry        *prometheus.Registry
	turnsTotal      *prometheus.CounterVec
	turnDuration    prometheus.Histogram
	crisisTotal     prometheus.Counter
	moodTotal       *prometheus.CounterVec
	storageWarnings *prometheus.CounterVec
	remindersFired  prometheus.Counter
}

// New returns a Prometheus recorder or a no-op one when disabled.
func New(enabled bool) Recorder {
	if !enabled {
		return Noop{}
	}
	return NewProvider(prometheus.NewRegistry())
}

// NewProvider registers every collector on registry.
func NewProvider(registry *prometheus.Registry) *Provider {
	factory := promauto.With(registry)
	registry.MustRegister(collectors.NewGoCollector())

	return &Provider{
		registry: registry,
		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mindpal_turns_total",
			Help: "Conversation turns by outcome",
		}, []string{"outcome"}),
		turnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindpal_turn_duration_seconds",
			Help:    "Time spent waiting for the conversational model",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		crisisTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mindpal_crisis_detections_total",
			Help: "User messages that raised the crisis interrupt",
		}),
		moodTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mindpal_mood_analyses_total",
			Help: "Mood analyses by outcome",
		}, []string{"outcome"}),
		storageWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mindpal_storage_warnings_total",
			Help: "Failed slot writes surfaced as warnings",
		}, []string{"slot"}),
		remindersFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "mindpal_reminders_fired_total",
			Help: "Daily reminder notifications dispatched",
		}),
	}
}

func (p *Provider) IncTurns(outcome string) {
	p.turnsTotal.WithLabelValues(outcome).Inc()
}

func (p *Provider) ObserveTurnDuration(duration time.Duration) {
	p.turnDuration.Observe(duration.Seconds())
}

func (p *Provider) IncCrisisDetections() {
	p.crisisTotal.Inc()
}

func (p *Provider) IncMoodAnalyses(outcome string) {
	p.moodTotal.WithLabelValues(outcome).Inc()
}

func (p *Provider) IncStorageWarnings(slot string) {
	p.storageWarnings.WithLabelValues(slot).Inc()
}

func (p *Provider) IncRemindersFired() {
	p.remindersFired.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Noop discards every observation.
type Noop struct{}

func (Noop) IncTurns(string)                   {}
func (Noop) ObserveTurnDuration(time.Duration) {}
func (Noop) IncCrisisDetections()              {}
func (Noop) IncMoodAnalyses(string)            {}
func (Noop) IncStorageWarnings(string)         {}
func (Noop) IncRemindersFired()                {}
func (Noop) Handler() http.Handler             { return http.NotFoundHandler() }
