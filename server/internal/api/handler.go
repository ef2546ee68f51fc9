package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/carepulse/carepulse/internal/pipeline"
	"github.com/carepulse/carepulse/pkg/types"
	"github.com/carepulse/carepulse/server/internal/alerts"
	"github.com/carepulse/carepulse/server/internal/config"
	"github.com/carepulse/carepulse/server/internal/metrics"
	"github.com/carepulse/carepulse/server/internal/store"
)

// Options wires the handler to its collaborators. Store and Metrics are
// required; everything else is optional.
type Options struct {
	Store    *store.Store
	Metrics  *metrics.Metrics
	Alerts   *alerts.Engine
	Pipeline *pipeline.Pipeline

	RateLimit      config.RateLimitConfig
	MaxUploadBytes int64

	// Auth wraps every route except /metrics and /api/v1/health.
	Auth func(http.Handler) http.Handler

	// Stream is mounted at /ws/stream when set.
	Stream http.Handler

	// OnRun is called after a run is stored and alerts are evaluated.
	OnRun func(*types.Run)
}

// Handler serves the /api/v1 endpoints.
type Handler struct {
	store     *store.Store
	metrics   *metrics.Metrics
	alerts    *alerts.Engine
	pl        *pipeline.Pipeline
	limiter   *rate.Limiter
	maxUpload int64
	onRun     func(*types.Run)
}

// New builds the chi router for the whole HTTP surface.
func New(opts Options) (http.Handler, error) {
	h := &Handler{
		store:     opts.Store,
		metrics:   opts.Metrics,
		alerts:    opts.Alerts,
		pl:        opts.Pipeline,
		maxUpload: opts.MaxUploadBytes,
		onRun:     opts.OnRun,
	}
	if h.pl == nil {
		pl, err := pipeline.New(nil)
		if err != nil {
			return nil, err
		}
		h.pl = pl
	}
	if h.maxUpload <= 0 {
		h.maxUpload = config.DefaultMaxUploadBytes
	}
	if opts.RateLimit.RPS > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit.RPS), opts.RateLimit.Burst)
	}
	authMW := opts.Auth
	if authMW == nil {
		authMW = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, CodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, CodeMethod, "method not allowed")
	})

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	if opts.Stream != nil {
		r.With(authMW).Method(http.MethodGet, "/ws/stream", opts.Stream)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.With(h.limit).Post("/analyze", h.analyze)
			r.With(h.limit).Post("/analyze/upload", h.upload)

			r.Get("/runs", h.listRuns)
			r.Get("/runs/latest", h.latestRun)
			r.Get("/runs/{id}", h.getRun)
			r.Get("/runs/{id}/patients/{pid}", h.getPatient)
			r.Get("/alerts", h.listAlerts)
		})
	})
	return r, nil
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: liveness plus run and alert counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", RunCount: len(h.store.List())}
	if h.alerts != nil {
		resp.AlertCount = h.alerts.Firing()
	}
	if run, ok := h.store.Latest(); ok {
		s := run.Summarize()
		resp.Latest = &s
	}
	jsonResp(w, http.StatusOK, resp)
}

// analyze handles POST /api/v1/analyze with a JSON batch body.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var b types.Batch
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&b); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
			return
		}
		h.metrics.Rejected("bad_request")
		jsonErr(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	h.accept(w, &b)
}

// listRuns returns GET /api/v1/runs: live run summaries, newest first.
// An optional ?limit=N caps the list.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.store.List()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonErr(w, http.StatusBadRequest, CodeBadRequest, "limit must be a non-negative integer")
			return
		}
		if n < len(runs) {
			runs = runs[:n]
		}
	}
	out := make([]types.RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, run.Summarize())
	}
	jsonResp(w, http.StatusOK, out)
}

// latestRun returns GET /api/v1/runs/latest.
func (h *Handler) latestRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.store.Latest()
	if !ok {
		jsonErr(w, http.StatusNotFound, CodeNotFound, "no runs yet")
		return
	}
	jsonResp(w, http.StatusOK, run)
}

// getRun returns GET /api/v1/runs/{id}; 404 if unknown or expired.
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		jsonErr(w, http.StatusNotFound, CodeNotFound, "run not found")
		return
	}
	jsonResp(w, http.StatusOK, run)
}

// getPatient returns GET /api/v1/runs/{id}/patients/{pid}.
func (h *Handler) getPatient(w http.ResponseWriter, r *http.Request) {
	run, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		jsonErr(w, http.StatusNotFound, CodeNotFound, "run not found")
		return
	}
	pid := chi.URLParam(r, "pid")
	for i := range run.Analysis.Patients {
		if run.Analysis.Patients[i].PatientID == pid {
			jsonResp(w, http.StatusOK, run.Analysis.Patients[i])
			return
		}
	}
	jsonErr(w, http.StatusNotFound, CodeNotFound, "patient not found in run")
}

// listAlerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// --- shared -----------------------------------------------------------------

// accept runs the pipeline over b, stores the run and fans it out.
func (h *Handler) accept(w http.ResponseWriter, b *types.Batch) {
	start := time.Now()
	a, err := h.pl.Run(b.Patients, b.Hospital)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidInput) {
			h.metrics.Rejected("invalid_input")
			jsonErr(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
			return
		}
		log.Error().Err(err).Str("batch", b.BatchID).Msg("api: pipeline failed")
		jsonErr(w, http.StatusInternalServerError, CodeInternal, "analysis failed")
		return
	}

	run := h.store.Put(&types.Run{BatchID: b.BatchID, Source: b.Source, Analysis: *a})
	h.metrics.ObserveRun(run)
	if h.alerts != nil {
		h.alerts.Evaluate(run)
		h.metrics.SetAlertsFiring(h.alerts.Firing())
	}
	if h.onRun != nil {
		h.onRun(run)
	}

	log.Info().
		Str("run", run.ID).
		Str("batch", run.BatchID).
		Str("source", run.Source).
		Str("hospital", a.Hospital.HospitalID).
		Int("patients", a.Summary.PatientCount).
		Float64("hsi", a.Hospital.HSI).
		Dur("took", time.Since(start)).
		Msg("api: run stored")
	jsonResp(w, http.StatusCreated, run)
}

// limit rejects requests beyond the configured token bucket.
func (h *Handler) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.metrics.Rejected("rate_limited")
			w.Header().Set("Retry-After", "1")
			jsonErr(w, http.StatusTooManyRequests, CodeRateLimited, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("api: request")
	})
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, errCode, msg string) {
	jsonResp(w, code, errorResponse{Error: msg, Code: errCode})
}
