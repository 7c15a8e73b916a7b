// Package web exposes the attendance core over a JSON HTTP API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

// Server represents the web server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server around the attendance service.
func NewServer(service *attendance.Service, port int, host string) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(service)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes(service *attendance.Service) {
	employeesHandler := handlers.NewEmployeesHandler(service)
	attendanceHandler := handlers.NewAttendanceHandler(service)

	s.router.Get("/api/health", handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/employees", employeesHandler.List)
		r.Post("/employees", employeesHandler.Enroll)
		r.Delete("/employees/{id}", employeesHandler.Delete)

		r.Post("/attendance", attendanceHandler.Mark)
		r.Get("/attendance", attendanceHandler.Records)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
