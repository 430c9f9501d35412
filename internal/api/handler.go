// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-repo-explorer/internal/model"
	"github-repo-explorer/internal/syncer"
)

// DefaultPerPage is used when a search request omits per_page.
const DefaultPerPage = 20

// RepositoryService is the subset of the sync layer the API calls.
type RepositoryService interface {
	Search(ctx context.Context, params model.SearchParams) (*syncer.SearchResults, error)
	FetchNextPage(ctx context.Context, params model.SearchParams) (*syncer.SearchResults, error)
	RefreshSearch(ctx context.Context, params model.SearchParams) (*syncer.SearchResults, error)
	Repository(ctx context.Context, id int64) (*model.Repository, error)
	RepositoryByOwner(ctx context.Context, owner, name string) (*model.Repository, error)
	FavoriteIDs(ctx context.Context) []int64
	IsFavorite(ctx context.Context, id int64) bool
	ToggleFavorite(ctx context.Context, id int64, wasFavorite bool) (syncer.ToggleResult, error)
}

// FavoritesView lists favorite repositories with their timestamps.
type FavoritesView interface {
	FavoriteRepositoriesWithTimestamps(ctx context.Context) []model.FavoriteRepository
}

// Handler is the container for API dependencies.
type Handler struct {
	repos     RepositoryService
	favorites FavoritesView
	logger    *slog.Logger
}

// searchResponse is the flattened view of a loaded search series.
type searchResponse struct {
	Query       string             `json:"query"`
	TotalCount  int                `json:"total_count"`
	Pages       int                `json:"pages"`
	HasNextPage bool               `json:"hasNextPage"`
	Items       []model.Repository `json:"items"`
}

// repositoryResponse is a repository detail with its current favorite state.
type repositoryResponse struct {
	*model.Repository
	IsFavorite bool `json:"isFavorite"`
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(repos RepositoryService, favorites FavoritesView, logger *slog.Logger) http.Handler {
	h := &Handler{
		repos:     repos,
		favorites: favorites,
		logger:    logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/search/repositories", func(r chi.Router) {
			r.Get("/", h.search)
			r.Post("/next", h.nextPage)
			r.Post("/refresh", h.refreshSearch)
		})
		r.Get("/repositories/{id}", h.getRepository)
		r.Get("/repos/{owner}/{name}", h.getRepositoryByOwner)
		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.listFavorites)
			r.Get("/ids", h.listFavoriteIDs)
			r.Put("/{id}", h.addFavorite)
			r.Delete("/{id}", h.removeFavorite)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// search returns the cached series for a query, loading page 1 on a miss.
// GET /v1/search/repositories?q=&per_page=&sort=&order=
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	h.withSearchParams(w, r, h.repos.Search)
}

// nextPage appends the next page to a started search.
// POST /v1/search/repositories/next?q=&per_page=&sort=&order=
func (h *Handler) nextPage(w http.ResponseWriter, r *http.Request) {
	h.withSearchParams(w, r, h.repos.FetchNextPage)
}

// refreshSearch discards a search's pages and reloads page 1.
// POST /v1/search/repositories/refresh?q=&per_page=&sort=&order=
func (h *Handler) refreshSearch(w http.ResponseWriter, r *http.Request) {
	h.withSearchParams(w, r, h.repos.RefreshSearch)
}

func (h *Handler) withSearchParams(w http.ResponseWriter, r *http.Request, op func(context.Context, model.SearchParams) (*syncer.SearchResults, error)) {
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := op(r.Context(), params)
	if err != nil {
		if errors.Is(err, syncer.ErrNoMorePages) {
			respondWithError(w, http.StatusConflict, "No more pages.")
			return
		}
		h.respondWithDomainError(w, err)
		return
	}

	items := res.Repositories()
	if items == nil {
		items = []model.Repository{}
	}
	respondWithJSON(w, http.StatusOK, searchResponse{
		Query:       res.Params.Query,
		TotalCount:  res.TotalCount(),
		Pages:       len(res.Pages),
		HasNextPage: res.HasNextPage(),
		Items:       items,
	})
}

// getRepository handles the request for a repository's details.
// GET /v1/repositories/{id}
func (h *Handler) getRepository(w http.ResponseWriter, r *http.Request) {
	id, ok := repositoryID(w, r)
	if !ok {
		return
	}

	repo, err := h.repos.Repository(r.Context(), id)
	if err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, repositoryResponse{Repository: repo, IsFavorite: h.repos.IsFavorite(r.Context(), repo.ID)})
}

// getRepositoryByOwner handles the request for a repository by full name.
// GET /v1/repos/{owner}/{name}
func (h *Handler) getRepositoryByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	repo, err := h.repos.RepositoryByOwner(r.Context(), owner, name)
	if err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, repositoryResponse{Repository: repo, IsFavorite: h.repos.IsFavorite(r.Context(), repo.ID)})
}

// listFavorites returns favorite repositories, newest first.
// GET /v1/favorites
func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.favorites.FavoriteRepositoriesWithTimestamps(r.Context()))
}

// listFavoriteIDs returns the favorite repository ids in stored order.
// GET /v1/favorites/ids
func (h *Handler) listFavoriteIDs(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.repos.FavoriteIDs(r.Context()))
}

// PUT /v1/favorites/{id}
func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, false)
}

// DELETE /v1/favorites/{id}
func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, true)
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request, wasFavorite bool) {
	id, ok := repositoryID(w, r)
	if !ok {
		return
	}

	result, err := h.repos.ToggleFavorite(r.Context(), id, wasFavorite)
	if err != nil {
		h.logger.Error("Failed to toggle favorite", "repository_id", id, "outcome", result.Outcome, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Could not update favorites.")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func repositoryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid repository id. Must be a positive integer.")
		return 0, false
	}
	return id, true
}

func parseSearchParams(r *http.Request) (model.SearchParams, error) {
	q := r.URL.Query()
	params := model.SearchParams{
		Query:   q.Get("q"),
		Page:    1,
		PerPage: DefaultPerPage,
		Sort:    model.SortField(q.Get("sort")),
		Order:   model.SortOrder(q.Get("order")),
	}
	if perPage := q.Get("per_page"); perPage != "" {
		n, err := strconv.Atoi(perPage)
		if err != nil {
			return params, errors.New("invalid 'per_page' parameter: must be an integer")
		}
		params.PerPage = n
	}
	return params, nil
}
