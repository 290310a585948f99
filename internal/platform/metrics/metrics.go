// Package metrics expone los contadores Prometheus del motor de matching y del hub realtime.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es lo que consumen servicios y hub. Nop() para tests.
type Recorder interface {
	RecordDelivery(event string, result string)
	RecordReplay(count int)
	RecordPublishRejected(reason string)
	RecordTransition(to string)
	RecordGeocodeFallback()
	RecordCandidateQuery(duration time.Duration, scored bool)
	ConnectionOpened()
	ConnectionClosed()
}

// Collector implementa Recorder sobre client_golang.
type Collector struct {
	deliveries       *prometheus.CounterVec
	replayed         prometheus.Counter
	publishRejected  *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	geocodeFallbacks prometheus.Counter
	candidateLatency *prometheus.HistogramVec
	connections      prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawfect_notifications_total",
			Help: "Notificaciones por evento y resultado (delivered|queued).",
		}, []string{"event", "result"}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawfect_notifications_replayed_total",
			Help: "Notificaciones pendientes reenviadas al reconectar.",
		}),
		publishRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawfect_channel_publish_rejected_total",
			Help: "Publicaciones de clientes rechazadas por validación o permisos.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawfect_match_transitions_total",
			Help: "Transiciones de estado de matches por estado destino.",
		}, []string{"to"}),
		geocodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawfect_geocode_fallback_total",
			Help: "Resoluciones de dirección que cayeron al punto por defecto.",
		}),
		candidateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pawfect_candidate_query_seconds",
			Help:    "Latencia de listAnimals.",
			Buckets: prometheus.DefBuckets,
		}, []string{"scored"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pawfect_ws_connections",
			Help: "Conexiones websocket abiertas.",
		}),
	}

	reg.MustRegister(
		c.deliveries,
		c.replayed,
		c.publishRejected,
		c.transitions,
		c.geocodeFallbacks,
		c.candidateLatency,
		c.connections,
	)
	return c
}

func (c *Collector) RecordDelivery(event string, result string) {
	c.deliveries.WithLabelValues(event, result).Inc()
}

func (c *Collector) RecordReplay(count int) {
	c.replayed.Add(float64(count))
}

func (c *Collector) RecordPublishRejected(reason string) {
	c.publishRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordTransition(to string) {
	c.transitions.WithLabelValues(to).Inc()
}

func (c *Collector) RecordGeocodeFallback() {
	c.geocodeFallbacks.Inc()
}

func (c *Collector) RecordCandidateQuery(duration time.Duration, scored bool) {
	label := "false"
	if scored {
		label = "true"
	}
	c.candidateLatency.WithLabelValues(label).Observe(duration.Seconds())
}

func (c *Collector) ConnectionOpened() { c.connections.Inc() }
func (c *Collector) ConnectionClosed() { c.connections.Dec() }

// Handler para el scrape de Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nop struct{}

// Nop no registra nada.
func Nop() Recorder { return nop{} }

func (nop) RecordDelivery(string, string) {}
func (nop) RecordReplay(int) {}
func (nop) RecordPublishRejected(string) {}
func (nop) RecordTransition(string) {}
func (nop) RecordGeocodeFallback() {}
func (nop) RecordCandidateQuery(time.Duration, bool) {}
func (nop) ConnectionOpened() {}
func (nop) ConnectionClosed() {}
