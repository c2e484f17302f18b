package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the whiteboard collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Operations   *prometheus.CounterVec
	EventsSent   *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
	Connections  prometheus.Gauge
	RoomsEvicted prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "operations_total",
			Help:      "Client operations handled, by operation and result.",
		}, []string{"op", "result"}),
		EventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "events_sent_total",
			Help:      "Events handed to the transport, by event type.",
		}, []string{"type"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "send_failures_total",
			Help:      "Per-recipient sends the transport rejected, by event type.",
		}, []string{"type"}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "whiteboard",
			Name:      "connections",
			Help:      "Open transport connections.",
		}),
		RoomsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "rooms_evicted_total",
			Help:      "Rooms removed by the idle sweep.",
		}),
	}
	reg.MustRegister(m.Operations, m.EventsSent, m.SendFailures, m.Connections, m.RoomsEvicted)
	return m
}

// RegisterRoomGauge exposes the live room count read from count.
func RegisterRoomGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "whiteboard",
		Name:      "rooms",
		Help:      "Rooms currently held in memory.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) Op(op, result string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Sent(eventType string) {
	if m == nil {
		return
	}
	m.EventsSent.WithLabelValues(eventType).Inc()
}

func (m *Metrics) SendFailed(eventType string) {
	if m == nil {
		return
	}
	m.SendFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.RoomsEvicted.Add(float64(n))
}

// Handler exposes Prometheus metrics gathered from g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
