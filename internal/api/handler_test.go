// internal/api/handler_test.go
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-repo-explorer/internal/cache"
	"github-repo-explorer/internal/favorites"
	"github-repo-explorer/internal/github"
	"github-repo-explorer/internal/storage"
	"github-repo-explorer/internal/syncer"
	"github-repo-explorer/internal/views"
)

var testLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

func repoJSON(id int) string {
	return fmt.Sprintf(`{"id":%d,"name":"repo-%d","full_name":"octo/repo-%d","owner":{"id":1,"login":"octo"},"stargazers_count":%d}`, id, id, id, id*10)
}

// fakeGitHub serves two pages of two and one results for any query, and
// repositories by id where ids 403 and 404 fail with that status.
func fakeGitHub() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/repositories", func(w http.ResponseWriter, r *http.Request) {
		var items []string
		switch r.URL.Query().Get("page") {
		case "1":
			items = []string{repoJSON(1), repoJSON(2)}
		case "2":
			items = []string{repoJSON(3)}
		}
		fmt.Fprintf(w, `{"total_count":3,"incomplete_results":false,"items":[%s]}`, strings.Join(items, ","))
	})
	mux.HandleFunc("GET /repositories/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		switch id {
		case http.StatusForbidden, http.StatusNotFound:
			w.WriteHeader(id)
			fmt.Fprint(w, `{"message":"nope"}`)
		default:
			fmt.Fprint(w, repoJSON(id))
		}
	})
	mux.HandleFunc("GET /repos/{owner}/{name}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, repoJSON(77))
	})
	return mux
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	ghServer := httptest.NewServer(fakeGitHub())
	t.Cleanup(ghServer.Close)

	client, err := github.NewClient(github.Options{BaseURL: ghServer.URL}, testLogger)
	require.NoError(t, err)
	store, err := cache.New(cache.DefaultConfig())
	require.NoError(t, err)
	db, err := storage.NewBolt(filepath.Join(t.TempDir(), "api.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	favs := favorites.NewStore(db, testLogger)
	s := syncer.NewSyncer(store, client, favs, testLogger, syncer.RetryPolicy{})
	return NewRouter(s, views.NewFavorites(s, favs, 2, testLogger), testLogger)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	rr := do(t, setupRouter(t), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestSearchEndpoints(t *testing.T) {
	router := setupRouter(t)
	const query = "?q=go&per_page=2&sort=stars&order=desc"

	rr := do(t, router, http.MethodGet, "/v1/search/repositories"+query)
	require.Equal(t, http.StatusOK, rr.Code)
	first := decode[searchResponse](t, rr)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasNextPage)
	assert.Equal(t, 1, first.Pages)

	rr = do(t, router, http.MethodPost, "/v1/search/repositories/next"+query)
	require.Equal(t, http.StatusOK, rr.Code)
	second := decode[searchResponse](t, rr)
	assert.Len(t, second.Items, 3)
	assert.False(t, second.HasNextPage)

	rr = do(t, router, http.MethodPost, "/v1/search/repositories/next"+query)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodPost, "/v1/search/repositories/refresh"+query)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[searchResponse](t, rr).Pages)
}

func TestSearchValidation(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing query", "/v1/search/repositories"},
		{"non-numeric per_page", "/v1/search/repositories?q=go&per_page=abc"},
		{"unknown sort", "/v1/search/repositories?q=go&sort=size"},
		{"next before search", "/v1/search/repositories/next?q=never"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if strings.Contains(tt.target, "/next") {
				method = http.MethodPost
			}
			rr := do(t, router, method, tt.target)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rr)["error"])
		})
	}
}

func TestRepositoryEndpoints(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"by id", "/v1/repositories/5", http.StatusOK, `{"id":5,"name":"repo-5","full_name":"octo/repo-5","owner":{"id":1,"login":"octo","avatar_url":"","html_url":""},"description":null,"html_url":"","stargazers_count":50,"forks_count":0,"language":null,"created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z","isFavorite":false}`},
		{"by owner and name", "/v1/repos/octo/repo-77", http.StatusOK, ""},
		{"not found", "/v1/repositories/404", http.StatusNotFound, `{"error":"Repository not found."}`},
		{"rate limited", "/v1/repositories/403", http.StatusTooManyRequests, `{"error":"API rate limit exceeded. Please try again later."}`},
		{"invalid id", "/v1/repositories/abc", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodGet, tt.target)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestFavoriteEndpoints(t *testing.T) {
	router := setupRouter(t)

	rr := do(t, router, http.MethodPut, "/v1/favorites/5")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"repositoryId":5,"isFavorite":true,"outcome":"committed"}`, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/v1/favorites/ids")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[5]`, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/v1/favorites")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]map[string]any](t, rr)
	require.Len(t, list, 1)
	assert.EqualValues(t, 5, list[0]["id"])
	assert.NotEmpty(t, list[0]["addedAt"])

	rr = do(t, router, http.MethodDelete, "/v1/favorites/5")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"repositoryId":5,"isFavorite":false,"outcome":"committed"}`, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/v1/favorites/ids")
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(t, router, http.MethodPut, "/v1/favorites/0")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
