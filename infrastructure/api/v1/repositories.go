package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/codesense-dev/codesense/application/service"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/api/middleware"
	"github.com/go-chi/chi/v5"
)

// RepositoriesRouter handles repository and ingestion endpoints.
type RepositoriesRouter struct {
	coordinator *service.Coordinator
	queries     *service.QueryService
	logger      *slog.Logger
}

// NewRepositoriesRouter creates a RepositoriesRouter.
func NewRepositoriesRouter(coordinator *service.Coordinator, queries *service.QueryService, logger *slog.Logger) *RepositoriesRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoriesRouter{coordinator: coordinator, queries: queries, logger: logger}
}

// Routes returns the chi router for repository endpoints.
func (r *RepositoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Ingest)
	router.Get("/{id}", r.Get)
	router.Get("/{id}/status", r.Status)
	router.Post("/{id}/query", r.Query)

	return router
}

func (r *RepositoriesRouter) repositoryID(req *http.Request) (int64, error) {
	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid repository id %q: %w", idStr, middleware.ErrValidation)
	}
	return id, nil
}

// List handles GET /api/v1/repositories.
//
//	@Summary		List repositories
//	@Description	Get all tracked source repositories
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	RepositoryListResponse
//	@Failure		500	{object}	middleware.JSONAPIErrorResponse
//	@Security		APIKeyAuth
//	@Router			/repositories [get]
func (r *RepositoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	repos, err := r.coordinator.Repositories(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]RepositoryData, 0, len(repos))
	for _, repo := range repos {
		data = append(data, repoToDTO(repo))
	}

	middleware.WriteJSON(w, http.StatusOK, RepositoryListResponse{Data: data})
}

// Get handles GET /api/v1/repositories/{id}.
//
//	@Summary		Get repository
//	@Description	Get a tracked repository by ID
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Repository ID"
//	@Success		200	{object}	RepositoryResponse
//	@Failure		404	{object}	middleware.JSONAPIErrorResponse
//	@Security		APIKeyAuth
//	@Router			/repositories/{id} [get]
func (r *RepositoriesRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	repo, err := r.coordinator.Repository(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, RepositoryResponse{Data: repoToDTO(repo)})
}

// Ingest handles POST /api/v1/repositories: register (if new) and start an
// ingestion run for the given remote URL.
//
//	@Summary		Ingest repository
//	@Description	Register a repository (if not already tracked) and start an ingestion run
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RepositoryCreateRequest	true	"Repository request"
//	@Success		202		{object}	IngestResponse
//	@Failure		400		{object}	middleware.JSONAPIErrorResponse
//	@Failure		500		{object}	middleware.JSONAPIErrorResponse
//	@Security		APIKeyAuth
//	@Router			/repositories [post]
func (r *RepositoriesRouter) Ingest(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body RepositoryCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("decode request: %w: %w", middleware.ErrValidation, err), r.logger)
		return
	}
	if body.RemoteURL == "" {
		middleware.WriteError(w, req, fmt.Errorf("remote_url is required: %w", middleware.ErrValidation), r.logger)
		return
	}

	repo, run, err := r.coordinator.Ingest(ctx, body.RemoteURL, taskqueue.PriorityUserRequested)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resp := IngestResponse{}
	resp.Data.Repository = repoToDTO(repo)
	resp.Data.Run = runToDTO(run)
	middleware.WriteJSON(w, http.StatusAccepted, resp)
}

// Status handles GET /api/v1/repositories/{id}/status.
//
//	@Summary		Get ingestion status
//	@Description	Get the latest ingestion run for a repository
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Repository ID"
//	@Success		200	{object}	RunResponse
//	@Failure		404	{object}	middleware.JSONAPIErrorResponse
//	@Security		APIKeyAuth
//	@Router			/repositories/{id}/status [get]
func (r *RepositoriesRouter) Status(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	run, err := r.coordinator.Status(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, RunResponse{Data: runToDTO(run)})
}

// Query handles POST /api/v1/repositories/{id}/query: the hybrid query
// engine's (C14) HTTP entry point.
//
//	@Summary		Query repository
//	@Description	Ask a natural-language question against an indexed commit
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Repository ID"
//	@Param			body	body		QueryRequest	true	"Query request"
//	@Success		200		{object}	QueryResponse
//	@Failure		400		{object}	middleware.JSONAPIErrorResponse
//	@Failure		500		{object}	middleware.JSONAPIErrorResponse
//	@Security		APIKeyAuth
//	@Router			/repositories/{id}/query [post]
func (r *RepositoriesRouter) Query(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body QueryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("decode request: %w: %w", middleware.ErrValidation, err), r.logger)
		return
	}
	if body.Query == "" {
		middleware.WriteError(w, req, fmt.Errorf("query is required: %w", middleware.ErrValidation), r.logger)
		return
	}
	if body.CommitSHA == "" {
		repo, err := r.coordinator.Repository(ctx, id)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		body.CommitSHA = repo.LatestCommitSHA()
	}

	result, err := r.queries.Ask(ctx, id, body.CommitSHA, body.Query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, QueryResponse{Data: queryResultToDTO(result)})
}
