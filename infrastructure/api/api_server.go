package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/codesense-dev/codesense/application/service"
	"github.com/codesense-dev/codesense/infrastructure/api/middleware"
	v1 "github.com/codesense-dev/codesense/infrastructure/api/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// APIServer bundles the full HTTP surface: the versioned REST API, the docs
// UI, and (once mounted via MountMCP) the MCP streaming endpoint, built
// directly around the pair of application services codesense exposes.
type APIServer struct {
	server      Server
	coordinator *service.Coordinator
	queries     *service.QueryService
	authConfig  middleware.AuthConfig
	logger      *slog.Logger
	mounted     bool
}

// NewAPIServer creates an APIServer listening on addr.
func NewAPIServer(addr string, coordinator *service.Coordinator, queries *service.QueryService, apiKeys []string, logger *slog.Logger) *APIServer {
	return NewAPIServerWithJWT(addr, coordinator, queries, apiKeys, "", logger)
}

// NewAPIServerWithJWT creates an APIServer whose WriteProtect middleware
// additionally accepts a Bearer JWT signed with jwtSecret, for callers that
// don't hold a long-lived static API key.
func NewAPIServerWithJWT(addr string, coordinator *service.Coordinator, queries *service.QueryService, apiKeys []string, jwtSecret string, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		server:      NewServer(addr, logger),
		coordinator: coordinator,
		queries:     queries,
		authConfig:  middleware.NewAuthConfig(apiKeys, jwtSecret),
		logger:      logger,
	}
}

// Router returns the underlying chi router, mounting routes on first call.
func (a *APIServer) Router() chi.Router {
	if !a.mounted {
		a.MountRoutes()
	}
	return a.server.Router()
}

// MountRoutes wires the versioned API and docs routers onto the server. It
// is idempotent and safe to call before mounting an MCP handler separately.
func (a *APIServer) MountRoutes() {
	if a.mounted {
		return
	}
	router := a.server.Router()

	router.Use(middleware.Logging(a.logger))
	router.Use(middleware.CorrelationID)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.WriteProtect(a.authConfig))
		r.Mount("/repositories", v1.NewRepositoriesRouter(a.coordinator, a.queries, a.logger).Routes())
	})

	router.Mount("/docs", NewDocsRouter().Routes())

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	a.mounted = true
}

// MountMCP mounts handler (an MCP streamable-HTTP handler) at /mcp, outside
// chi's route-level Timeout groups since MCP sessions stream. It must be
// called after MountRoutes; the API key guard is skipped here deliberately,
// letting the MCP transport's own negotiation gate access instead of
// layering WriteProtect over a streaming body.
func (a *APIServer) MountMCP(handler http.Handler) {
	if !a.mounted {
		a.MountRoutes()
	}
	a.server.Router().Mount("/mcp", handler)
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (a *APIServer) ListenAndServe() error {
	if !a.mounted {
		a.MountRoutes()
	}
	return a.server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Handler returns the root http.Handler, useful for httptest servers.
func (a *APIServer) Handler() http.Handler {
	return a.Router()
}
