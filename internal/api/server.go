// Package api exposes the node classes, the browser result callback and
// the push channel over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/soochol/pyexec/internal/logging"
	"github.com/soochol/pyexec/internal/nodes"
)

type Server struct {
	nodes   *nodes.Registry
	runtime *nodes.Runtime
	push    http.Handler
	webDir  string
	logger  *slog.Logger
}

func NewServer(registry *nodes.Registry, rt *nodes.Runtime, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{nodes: registry, runtime: rt, logger: logger}
}

// SetPushHandler mounts the websocket push channel at /ws.
func (s *Server) SetPushHandler(h http.Handler) {
	s.push = h
}

// SetWebDir serves the front-end extension scripts from dir under
// /extensions/pyexec.
func (s *Server) SetWebDir(dir string) {
	s.webDir = dir
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(s.withLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/object_info", s.listObjectInfo)
		r.Get("/object_info/{class}", s.getObjectInfo)
		r.Post("/nodes/{class}/execute", s.executeNode)
	})
	r.Post("/pyexec/js_result", s.deliverJSResult)

	if s.push != nil {
		r.Handle("/ws", s.push)
	}
	if s.webDir != "" {
		r.Handle("/extensions/pyexec/*", http.StripPrefix("/extensions/pyexec", StaticHandler(s.webDir)))
	}
	return r
}

// withLogger attaches the server logger, tagged with the request id, to the
// request context.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger
		if id := middleware.GetReqID(r.Context()); id != "" {
			logger = logger.With("request_id", id)
		}
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
