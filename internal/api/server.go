package api

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/imagegen"
	"github.com/lox/grlweather/internal/store"
)

type Server struct {
	cities     *cities.Store
	audit      *store.Store
	port       string
	tmpl       *template.Template
	imageCache *imagegen.Cache
	logger     *slog.Logger
}

// NewServer serves the dashboard for cs. audit may be nil when the fetch
// audit log is disabled.
func NewServer(cs *cities.Store, audit *store.Store, port string) *Server {
	return &Server{
		cities:     cs,
		audit:      audit,
		port:       port,
		tmpl:       newTemplates(),
		imageCache: imagegen.NewCache(30 * time.Second),
		logger:     slog.Default(),
	}
}

func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Post("/cities/{index}", s.handleEditForm)
	r.Post("/search", s.handleSearchForm)
	r.Get("/partials/cards/{collection}", s.handleCardsPartial)
	r.Get("/summary.png", s.handleSummaryImage)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cities", s.handleAPICities)
		r.Put("/cities/{index}", s.handleAPIEditCity)
		r.Post("/search", s.handleAPISearch)
		r.Get("/events", s.handleEvents)
		r.Get("/fetch-runs", s.handleAPIFetchRuns)
	})
	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("api: shutdown", "error", err)
		}
	}()

	s.logger.Info("api: listening", "port", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
