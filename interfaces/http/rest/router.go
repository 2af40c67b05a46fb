package rest

import (
	"net/http"

	"agentmesh/application/ports"
	"agentmesh/application/services"
	"agentmesh/infrastructure/config"
	"agentmesh/interfaces/http/rest/handlers"
	"agentmesh/interfaces/http/rest/middleware"
	"agentmesh/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	coordinator *services.SessionCoordinator
	contextLog  *services.ContextLog
	graphStore  ports.GraphStore
	cfg         *config.Config
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	coordinator *services.SessionCoordinator,
	contextLog *services.ContextLog,
	graphStore ports.GraphStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		coordinator: coordinator,
		contextLog:  contextLog,
		graphStore:  graphStore,
		cfg:         cfg,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() (http.Handler, error) {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	secret := rt.cfg.JWTSecret
	if secret == "" && !rt.cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    rt.cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(validator, rt.cfg.IsLambda, rt.logger))

		sessionHandler := handlers.NewSessionHandler(rt.coordinator, rt.contextLog, rt.logger)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.EnsureSession)
			r.Route("/{sessionID}/context", func(r chi.Router) {
				r.Post("/", sessionHandler.RecordStep)
				r.Get("/", sessionHandler.GetContextHistory)
				r.Get("/current", sessionHandler.GetCurrentContext)
			})
		})

		capabilityHandler := handlers.NewCapabilityHandler(rt.coordinator, rt.logger)
		r.Get("/capabilities/{capability}/candidates", capabilityHandler.NextCandidates)

		graphHandler := handlers.NewGraphHandler(rt.graphStore, rt.logger)
		r.Route("/graph", func(r chi.Router) {
			r.Post("/edges", graphHandler.RegisterEdge)
			r.Post("/tools", graphHandler.RegisterTool)
		})
	})

	return router, nil
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
