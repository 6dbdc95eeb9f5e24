// Package metrics holds the bot's prometheus collectors on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chronbot"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	linesIn    prometheus.Counter
	linesOut   prometheus.Counter
	commands   *prometheus.CounterVec
	stateSaves *prometheus.CounterVec
	announces  prometheus.Counter
	connState  prometheus.Gauge
}

// New registers the bot collectors plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "irc_lines_received_total",
			Help:      "Protocol lines read from the server.",
		}),
		linesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "irc_lines_sent_total",
			Help:      "Protocol lines written to the server.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Dispatched commands by verb and outcome.",
		}, []string{"verb", "outcome"}),
		stateSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_saves_total",
			Help:      "State snapshot writes by result.",
		}, []string{"result"}),
		announces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "4:20 announcements sent.",
		}),
		connState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "irc_connection_state",
			Help:      "Connection lifecycle state (0 disconnected .. 4 closed).",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.linesIn, m.linesOut, m.commands, m.stateSaves, m.announces, m.connState,
	)
	return m
}

func (m *Metrics) LineReceived() {
	if m == nil {
		return
	}
	m.linesIn.Inc()
}

func (m *Metrics) LineSent() {
	if m == nil {
		return
	}
	m.linesOut.Inc()
}

// Command counts one dispatch; outcome is ok, usage or error.
func (m *Metrics) Command(verb, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(verb, outcome).Inc()
}

// StateSaved matches the state.WithSaveHook signature.
func (m *Metrics) StateSaved(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.stateSaves.WithLabelValues("error").Inc()
		return
	}
	m.stateSaves.WithLabelValues("ok").Inc()
}

func (m *Metrics) Announced() {
	if m == nil {
		return
	}
	m.announces.Inc()
}

func (m *Metrics) ConnState(v int) {
	if m == nil {
		return
	}
	m.connState.Set(float64(v))
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
