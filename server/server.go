package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/pkg/slogx"
	"github.com/casualjim/automata/pkg/uuidx"
	"github.com/casualjim/automata/spec"
)

// Server serves an automata location over HTTP.
type Server struct {
	loader    *spec.Loader
	registry  *prometheus.Registry
	workspace string
	hook      events.Hook

	runs        *prometheus.CounterVec
	delegations *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// Option configures a server.
type Option = opts.Option[Server]

var (
	// WithWorkspace overrides where run artifacts are written.
	WithWorkspace = opts.ForName[Server, string]("workspace")
	// WithHook attaches an extra observer for every run served. It runs
	// alongside the metrics hook, not instead of it.
	WithHook = opts.ForName[Server, events.Hook]("hook")
)

// New creates a server for the automata at location. The server always wires
// its own hook into the loader so delegations show up in the metrics.
func New(location string, options ...Option) (*Server, error) {
	s := &Server{
		registry:  prometheus.NewRegistry(),
		workspace: "workspace",
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}

	s.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_runs_total",
		Help: "Completed automaton runs by outcome.",
	}, []string{"automaton", "status"})
	s.delegations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_delegations_total",
		Help: "Delegation calls observed during runs.",
	}, []string{"automaton"})
	s.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "automata_run_duration_seconds",
		Help:    "Wall-clock duration of automaton runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"automaton"})
	s.registry.MustRegister(s.runs, s.delegations, s.runDuration)

	loader, err := spec.New(location,
		spec.WithWorkspace(s.workspace),
		spec.WithHook(events.CombineHooks(s.hook, &metricsHook{delegations: s.delegations})),
	)
	if err != nil {
		return nil, err
	}
	s.loader = loader
	return s, nil
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(permissiveCORS)

	r.Route("/v1/automata", func(r chi.Router) {
		r.Get("/", s.listAutomata)
		r.Get("/{id}", s.getAutomaton)
		r.Post("/{id}/run", s.runAutomaton)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

func permissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// listItem summarizes one automaton for the hierarchy listing.
type listItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rank        int      `json:"rank"`
	Runner      string   `json:"runner"`
	SubAutomata []string `json:"sub_automata,omitempty"`
}

func (s *Server) listAutomata(w http.ResponseWriter, r *http.Request) {
	ids, err := s.loader.IDs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	items := make([]listItem, 0, len(ids))
	for _, id := range ids {
		sp, err := s.loader.Load(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		items = append(items, listItem{
			ID:          id,
			Name:        sp.Name,
			Rank:        sp.Rank,
			Runner:      sp.Runner,
			SubAutomata: sp.SubAutomata,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getAutomaton(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sp, err := s.loader.Load(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

type runRequest struct {
	Request   string `json:"request"`
	Requester string `json:"requester"`
}

type runResponse struct {
	ID     string `json:"id"`
	Result string `json:"result"`
}

func (s *Server) runAutomaton(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Request == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("request is required"))
		return
	}
	if body.Requester == "" {
		body.Requester = "api"
	}

	a, err := s.loader.Build(id, body.Requester, uuidx.New().String())
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	runnable, ok := a.(api.Runnable)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("automaton %q is not runnable", id))
		return
	}

	start := time.Now()
	result, err := runnable.Run(r.Context(), body.Request)
	s.runDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())
	if err != nil {
		s.runs.WithLabelValues(id, "error").Inc()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.runs.WithLabelValues(id, "ok").Inc()

	writeJSON(w, http.StatusOK, runResponse{ID: id, Result: result})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		slog.Error("failed to encode response", slogx.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// metricsHook counts delegation calls per delegating automaton.
type metricsHook struct {
	events.NoopHook
	delegations *prometheus.CounterVec
}

func (h *metricsHook) OnDelegationCall(_ context.Context, msg messages.Message[messages.DelegationMessage]) {
	h.delegations.WithLabelValues(msg.Sender).Inc()
}
