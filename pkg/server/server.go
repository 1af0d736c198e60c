// Package server exposes the bot operations as an HTTP function surface.
// Each function answers HTTP 200 with the in-band result object whatever
// the outcome; transport-level status codes are reserved for requests that
// never reach an operation (unknown function, wrong method).
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskbotics/b24bot/pkg/buildinfo"
	"github.com/taskbotics/b24bot/pkg/funcs"
	"github.com/taskbotics/b24bot/pkg/logging"
)

// Ops is the operation set the server dispatches to. *funcs.Service
// satisfies it.
type Ops interface {
	CreateTask(ctx context.Context, args funcs.Args) funcs.Result
	UpdateTask(ctx context.Context, args funcs.Args) funcs.Result
	DeleteTask(ctx context.Context, args funcs.Args) funcs.Result
	ShowTasks(ctx context.Context, args funcs.Args) funcs.Result
	CreateProject(ctx context.Context, args funcs.Args) funcs.Result
}

// Server routes function invocations to the operations and serves the
// health, version and metrics endpoints alongside them.
type Server struct {
	ops      Ops
	log      logging.Logger
	metrics  *metrics
	registry *prometheus.Registry
	mux      *http.ServeMux
}

// New builds a Server around the given operations.
func New(ops Ops, log logging.Logger) *Server {
	if log == nil {
		log = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		ops:      ops,
		log:      log,
		metrics:  newMetrics(registry),
		registry: registry,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/functions/create_task", s.function("create_task", func(svc Ops) opFn { return svc.CreateTask }))
	s.mux.HandleFunc("POST /v1/functions/update_task", s.function("update_task", func(svc Ops) opFn { return svc.UpdateTask }))
	s.mux.HandleFunc("POST /v1/functions/delete_task", s.function("delete_task", func(svc Ops) opFn { return svc.DeleteTask }))
	s.mux.HandleFunc("POST /v1/functions/show_tasks", s.function("show_tasks", func(svc Ops) opFn { return svc.ShowTasks }))
	s.mux.HandleFunc("POST /v1/functions/create_project", s.function("create_project", func(svc Ops) opFn { return svc.CreateProject }))

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	s.mux.Handle("GET /version", buildinfo.Handler("b24bot"))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

type opFn func(ctx context.Context, args funcs.Args) funcs.Result

// function wraps one operation into an HTTP handler: request id, argument
// decoding, metrics and the access log.
func (s *Server) function(name string, pick func(Ops) opFn) http.HandlerFunc {
	op := pick(s.ops)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := context.WithValue(r.Context(), logging.RequestIDKey, uuid.NewString())
		log := s.log.WithContext(ctx)

		var args funcs.Args
		var res funcs.Result
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			log.Warn("malformed function request", logging.F("function", name), logging.Err(err))
			res = funcs.Result{Status: funcs.StatusError, Message: "Техническая ошибка: некорректный JSON в запросе."}
		} else {
			res = op(ctx, args)
		}

		elapsed := time.Since(start)
		s.metrics.observe(name, res.Status, elapsed)
		log.Info("function handled",
			logging.F("function", name),
			logging.F("outcome", res.Status),
			logging.F("duration", elapsed),
		)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(res); err != nil {
			log.Error("writing function response", logging.F("function", name), logging.Err(err))
		}
	}
}
