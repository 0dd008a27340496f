// Package server exposes the interview service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/digitalscyther/ai-cv-creator/service"
)

type Server struct {
	httpServer *http.Server
}

func New(addr string, svc *service.Service) *Server {
	handler := &handlers{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", handler.createUser)
	mux.HandleFunc("GET /users/{id}", handler.getUser)
	mux.HandleFunc("POST /users/{id}/message", handler.postMessage)
	mux.HandleFunc("GET /users/{id}/cv", handler.getCV)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(logRequests(mux), &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	slog.Info("starting api server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
