package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensorhub/backend/services/sensor-api/internal/models"
)

const namespace = "sensorhub"

// maxStationSeries caps the equipment_id label set of last_reading_value.
const maxStationSeries = 1000

// Collector owns the service registry. It records ingest counters for the
// sensors service, per-station gauges for the latest value and HTTP timings.
type Collector struct {
	registry *prometheus.Registry

	readingsIngested *prometheus.CounterVec
	uploadsRejected  prometheus.Counter
	lastValue        *prometheus.GaugeVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec

	mu          sync.Mutex
	lastSeen    map[string]time.Time
	maxStations int
}

// New builds a collector on a fresh registry with the Go and process collectors attached.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		readingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Readings persisted, by ingest source.",
		}, []string{"source"}),
		uploadsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_uploads_rejected_total",
			Help:      "CSV uploads rejected as malformed.",
		}),
		lastValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reading_value",
			Help:      "Value of the most recently ingested reading per station.",
		}, []string{"equipment_id"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		lastSeen:    make(map[string]time.Time),
		maxStations: maxStationSeries,
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.readingsIngested,
		c.uploadsRejected,
		c.lastValue,
		c.requests,
		c.requestDuration,
	)
	return c
}

// ReadingsIngested counts n readings persisted from source.
func (c *Collector) ReadingsIngested(source string, n int) {
	c.readingsIngested.WithLabelValues(source).Add(float64(n))
}

// UploadRejected counts a malformed CSV upload.
func (c *Collector) UploadRejected() {
	c.uploadsRejected.Inc()
}

// Publish tracks the value of the newest reading per station, by timestamp.
// Readings older than the one already shown are ignored, and stations past
// maxStationSeries get no series. It satisfies the sensors service publisher
// so the collector can sit beside the stream hub.
func (c *Collector) Publish(reading models.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen, ok := c.lastSeen[reading.EquipmentID]
	if !ok && len(c.lastSeen) >= c.maxStations {
		return
	}
	if ok && reading.Timestamp.Before(seen) {
		return
	}
	c.lastSeen[reading.EquipmentID] = reading.Timestamp
	c.lastValue.WithLabelValues(reading.EquipmentID).Set(reading.Value)
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
