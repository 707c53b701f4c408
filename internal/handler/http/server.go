package http

import (
	"PIVOT-Backend/internal/repository"
	"PIVOT-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// Server bundles the HTTP handlers.
type Server struct {
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	healthHandler   *HealthHandler
	log             *zap.Logger
}

func NewServer(
	storage repository.Storage,
	shortener *service.ShortenerService,
	log *zap.Logger,
	baseURL string,
) *Server {
	return &Server{
		linksHandler:    NewLinksHandler(storage, shortener, log, baseURL),
		redirectHandler: NewRedirectHandler(shortener, log),
		healthHandler:   NewHealthHandler(storage, log),
		log:             log,
	}
}

// SetupRoutes builds the route table. The redirect handler owns the
// catch-all and must stay last.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Probes (no CORS needed)
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)
	mux.HandleFunc("/metrics", s.healthHandler.Metrics)

	// API endpoints
	mux.HandleFunc("/api/shorten", s.withCORS(s.linksHandler.CreateLink))
	mux.HandleFunc("/api/links/", s.withCORS(s.linksHandler.HandleLink))

	// Redirect endpoint - must be last
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// withCORS adds CORS headers so the shorten form can be served from
// another origin.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
