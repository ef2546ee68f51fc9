package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog/log"

	"github.com/carepulse/carepulse/pkg/types"
)

const namespace = "carepulse"

// Metrics owns a private Prometheus registry and the server's instruments.
type Metrics struct {
	reg *prometheus.Registry

	runs         *prometheus.CounterVec
	patients     *prometheus.CounterVec
	beds         *prometheus.CounterVec
	hsi          *prometheus.GaugeVec
	critical     *prometheus.GaugeVec
	alertsFiring prometheus.Gauge
	rejected     *prometheus.CounterVec
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers all instruments on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs accepted, by batch source.",
		}, []string{"source"}),
		patients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patients_total",
			Help:      "Patients analysed, by severity tier.",
		}, []string{"severity"}),
		beds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bed_allocations_total",
			Help:      "Bed allocation decisions, by label.",
		}, []string{"allocation"}),
		hsi: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hospital_stress_index",
			Help:      "Hospital Stress Index of the latest run per hospital.",
		}, []string{"hospital"}),
		critical: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "critical_patients",
			Help:      "Critical patients in the latest run per hospital.",
		}, []string{"hospital"}),
		alertsFiring: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_firing",
			Help:      "Alerts currently firing.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_rejected_total",
			Help:      "Batches rejected before analysis, by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}

	m.reg.MustRegister(
		m.runs, m.patients, m.beds, m.hsi, m.critical,
		m.alertsFiring, m.rejected, m.requests, m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records one accepted analysis run.
func (m *Metrics) ObserveRun(run *types.Run) {
	source := run.Source
	if source == "" {
		source = "unknown"
	}
	m.runs.WithLabelValues(source).Inc()

	a := run.Analysis
	for sev, n := range a.Summary.BySeverity {
		m.patients.WithLabelValues(sev).Add(float64(n))
	}
	for bed, n := range a.Summary.ByBed {
		m.beds.WithLabelValues(bed).Add(float64(n))
	}
	m.hsi.WithLabelValues(a.Hospital.HospitalID).Set(a.Hospital.HSI)
	m.critical.WithLabelValues(a.Hospital.HospitalID).Set(float64(a.Hospital.CriticalCount))
}

// SetAlertsFiring sets the firing alert gauge.
func (m *Metrics) SetAlertsFiring(n int) {
	m.alertsFiring.Set(float64(n))
}

// Rejected counts a batch refused before analysis.
func (m *Metrics) Rejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Middleware records request counts and latency. The route label is the chi
// route pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the exposition format negotiated from the
// request's Accept header.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mfs, err := m.reg.Gather()
		if err != nil {
			log.Error().Err(err).Msg("metrics: gather failed")
			http.Error(w, "gather metrics: "+err.Error(), http.StatusInternalServerError)
			return
		}
		format := expfmt.Negotiate(r.Header)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range mfs {
			if err := enc.Encode(mf); err != nil {
				log.Warn().Err(err).Str("family", mf.GetName()).Msg("metrics: encode failed")
				return
			}
		}
	})
}

// Value returns the sum of all series of the named family whose labels
// include every pair in match. Missing families read as 0.
func (m *Metrics) Value(name string, match map[string]string) float64 {
	mfs, err := m.reg.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range mf.GetMetric() {
			if matches(metric, match) {
				total += sampleValue(metric)
			}
		}
		return total
	}
	return 0
}

func matches(metric *dto.Metric, match map[string]string) bool {
	found := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := match[lp.GetName()]; ok && v == lp.GetValue() {
			found++
		}
	}
	return found == len(match)
}

func sampleValue(metric *dto.Metric) float64 {
	switch {
	case metric.Counter != nil:
		return metric.Counter.GetValue()
	case metric.Gauge != nil:
		return metric.Gauge.GetValue()
	case metric.Histogram != nil:
		return float64(metric.Histogram.GetSampleCount())
	case metric.Untyped != nil:
		return metric.Untyped.GetValue()
	}
	return 0
}
