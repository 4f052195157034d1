package undo

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments a Manager for Prometheus scraping. It is registered
// per-Manager instance rather than as global package vars, since a test
// or an embedding may run more than one Manager at a time.
type Metrics struct {
	registered         prometheus.Counter
	unregistered       prometheus.Counter
	capacityExhausted  prometheus.Counter
	backgroundAdmitted prometheus.Counter
	backgroundRefused  prometheus.Counter
	rescheduled        prometheus.Counter
	nextHit            prometheus.Counter
	nextMiss           prometheus.Counter
	utilization        prometheus.Gauge
}

// NewMetrics creates and registers a Metrics instance against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_requests_registered_total",
			Help: "Total number of undo requests registered.",
		}),
		unregistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_requests_unregistered_total",
			Help: "Total number of undo requests returned to FREE.",
		}),
		capacityExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_register_capacity_exhausted_total",
			Help: "Total number of Register calls that found no FREE slot.",
		}),
		backgroundAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_background_admitted_total",
			Help: "Total number of requests promoted to background processing.",
		}),
		backgroundRefused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_background_refused_total",
			Help: "Total number of PerformInBackground calls refused by the soft limit.",
		}),
		rescheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_rescheduled_total",
			Help: "Total number of requests re-listed into byRetryTime after a failed attempt.",
		}),
		nextHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_next_hit_total",
			Help: "Total number of Next calls that returned a request.",
		}),
		nextMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "undo_next_miss_total",
			Help: "Total number of Next calls that found nothing eligible.",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "undo_utilization",
			Help: "Current count of non-FREE requests.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.registered, m.unregistered, m.capacityExhausted,
			m.backgroundAdmitted, m.backgroundRefused, m.rescheduled,
			m.nextHit, m.nextMiss, m.utilization)
	}
	return m
}

func (m *Metrics) observeRegister(utilization int) {
	m.registered.Inc()
	m.utilization.Set(float64(utilization))
}

func (m *Metrics) observeUnregister(utilization int) {
	m.unregistered.Inc()
	m.utilization.Set(float64(utilization))
}

func (m *Metrics) observeCapacityExhausted() { m.capacityExhausted.Inc() }
func (m *Metrics) observeBackgroundAdmitted() { m.backgroundAdmitted.Inc() }
func (m *Metrics) observeBackgroundRefused()  { m.backgroundRefused.Inc() }
func (m *Metrics) observeReschedule()         { m.rescheduled.Inc() }
func (m *Metrics) observeNextHit()            { m.nextHit.Inc() }
func (m *Metrics) observeNextMiss()           { m.nextMiss.Inc() }
