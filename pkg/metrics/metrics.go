package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's counters
type Metrics struct {
	Registry *prometheus.Registry

	// SlotsTotal counts slot lifecycle events by outcome
	// (added, proposed, confirmed, rejected, removed)
	SlotsTotal *prometheus.CounterVec

	RemindersSent       prometheus.Counter
	ReminderTicks       prometheus.Counter
	NotificationsFailed *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "teamslots"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SlotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "slots",
				Name:      "events_total",
				Help:      "Slot lifecycle events by outcome",
			},
			[]string{"outcome"},
		),
		RemindersSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reminders",
				Name:      "sent_total",
				Help:      "Reminders marked as sent",
			},
		),
		ReminderTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reminders",
				Name:      "ticks_total",
				Help:      "Reminder scans executed",
			},
		),
		NotificationsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "failed_total",
				Help:      "Announcements that could not be delivered",
			},
			[]string{"kind"},
		),
	}
}

// SlotEvent records a slot lifecycle event. It is safe on a nil receiver.
func (m *Metrics) SlotEvent(outcome string) {
	if m == nil {
		return
	}
	m.SlotsTotal.WithLabelValues(outcome).Inc()
}

// NotificationFailed records a failed announcement. It is safe on a nil receiver.
func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(kind).Inc()
}

// ReminderSent records a reminder. It is safe on a nil receiver.
func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

// Tick records a reminder scan. It is safe on a nil receiver.
func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.ReminderTicks.Inc()
}
