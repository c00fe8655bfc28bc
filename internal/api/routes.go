package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/deepsite/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/deepsite/internal/api/middleware"
	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

// Deps are the collaborators the router mounts. Optional fields disable
// their routes when nil.
type Deps struct {
	Logger   *slog.Logger
	Designer handlers.DesignerService
	Catalog  *catalog.Catalog
	Backend  llm.LLMProvider

	// Runs serves /api/runs.
	Runs handlers.RunLister
	// DB is pinged by /health/ready.
	DB handlers.Pinger
	// MCP serves /mcp.
	MCP http.Handler
	// Auth, when set, guards /api and /mcp with bearer JWTs.
	Auth apmiddleware.TokenParser

	AllowedOrigins []string
}

// NewRouter creates the chi router with every route.
// Public: /health, /health/ready. Guarded when Auth is set: /api/*, /mcp.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(d.AllowedOrigins) > 0 {
		r.Use(apmiddleware.CORS(d.AllowedOrigins))
	}

	// ===== PUBLIC ROUTES =====

	healthHandler := handlers.NewHealthHandler(d.DB, d.Backend)
	r.Get("/health", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// ===== GUARDED ROUTES =====

	r.Group(func(r chi.Router) {
		if d.Auth != nil {
			r.Use(apmiddleware.Auth(d.Auth))
		}

		r.Route("/api", func(r chi.Router) {
			modelsHandler := handlers.NewModelsHandler(d.Catalog)
			r.Get("/models", modelsHandler.List) // GET /api/models

			askAIHandler := handlers.NewAskAIHandler(d.Designer)
			r.Post("/ask-ai", askAIHandler.Generate) // POST /api/ask-ai
			r.Put("/ask-ai", askAIHandler.Edit)      // PUT /api/ask-ai

			if d.Runs != nil {
				r.Get("/runs", handlers.NewRunsHandler(d.Runs).List) // GET /api/runs
			}
		})

		if d.MCP != nil {
			r.Handle("/mcp", d.MCP)
		}
	})

	return r
}
