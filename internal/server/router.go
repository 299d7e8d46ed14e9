package server

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/watzon/alyx-executor/internal/metrics"
	"github.com/watzon/alyx-executor/internal/server/handlers"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
	handler     http.Handler
}

type Middleware func(http.Handler) http.Handler

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()
	r.handler = r.build()

	return r
}

func (r *Router) setupMiddleware() {
	cfg := r.server.cfg

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware)

	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware(cfg.Metrics.Path))
	}

	if cfg.Server.Compress {
		r.Use(func(next http.Handler) http.Handler {
			return gzhttp.GzipHandler(next)
		})
	}

	r.Use(MaxBodySizeMiddleware(cfg.Server.MaxBodySize))
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	h := handlers.NewExecutorHandlers(r.server.exec)

	r.mux.HandleFunc("GET /health", h.Health)
	r.mux.HandleFunc("GET /functions", h.ListFunctions)
	r.mux.HandleFunc("POST /invoke", h.Invoke)
	r.mux.HandleFunc("POST /clear-cache", h.ClearCache)

	if r.server.cfg.Metrics.Enabled {
		r.mux.Handle("GET "+r.server.cfg.Metrics.Path, metrics.Handler())
	}
}

func (r *Router) build() http.Handler {
	handler := http.Handler(r.mux)
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	return handler
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
