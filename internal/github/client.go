// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-repo-explorer/internal/errors"
	"github-repo-explorer/internal/model"
)

const (
	// DefaultUserAgent identifies this client to the GitHub API.
	DefaultUserAgent = "GitHub-Repo-App/1.0.0"
	// MediaType is sent as Accept on every request.
	MediaType      = "application/vnd.github.v3+json"
	defaultTimeout = 30 * time.Second
)

// acceptTransport pins the Accept header. go-github would otherwise send
// preview media types for search and repository lookups.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", MediaType)
	return t.base.RoundTrip(req)
}

// Options configures a Client. Zero values fall back to the public API defaults.
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// A non-empty token is attached through an oauth2 transport; it only raises the rate limit.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}
	rt := httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	httpClient.Transport = &acceptTransport{base: rt}

	gh := github.NewClient(httpClient)
	gh.UserAgent = DefaultUserAgent
	if opts.UserAgent != "" {
		gh.UserAgent = opts.UserAgent
	}

	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, err
		}
		gh.BaseURL = base
	}

	return &Client{
		gh:     gh,
		logger: logger,
	}, nil
}

// SearchRepositories fetches a single page of repository search results.
// PerPage above model.MaxPerPage is clamped rather than rejected.
func (c *Client) SearchRepositories(ctx context.Context, params model.SearchParams) (*model.SearchResultPage, error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	opts := &github.SearchOptions{
		Sort:  string(params.Sort),
		Order: string(params.Order),
		ListOptions: github.ListOptions{
			Page:    params.Page,
			PerPage: params.PerPage,
		},
	}

	c.logger.Debug("Searching repositories", "query", params.Query, "page", params.Page, "per_page", params.PerPage)

	result, resp, err := c.gh.Search.Repositories(ctx, params.Query, opts)
	if err != nil {
		return nil, c.translateError(err, resp, "search")
	}

	items := make([]model.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		items = append(items, toInternalRepository(r))
	}

	return &model.SearchResultPage{
		TotalCount:        result.GetTotal(),
		IncompleteResults: result.GetIncompleteResults(),
		Items:             items,
		Page:              params.Page,
		HasNextPage:       len(items) == params.PerPage,
	}, nil
}

// GetRepositoryByOwnerAndName fetches repository details and translates them to our internal model.
func (c *Client) GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (*model.Repository, error) {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(name) == "" {
		return nil, custom_errors.InvalidRequest("owner and name are required")
	}

	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, c.translateError(err, resp, "get repository")
	}
	r := toInternalRepository(repo)
	return &r, nil
}

// GetRepositoryByID fetches repository details by numeric id.
func (c *Client) GetRepositoryByID(ctx context.Context, id int64) (*model.Repository, error) {
	if id <= 0 {
		return nil, custom_errors.InvalidRequest("repository id must be positive")
	}

	repo, resp, err := c.gh.Repositories.GetByID(ctx, id)
	if err != nil {
		return nil, c.translateError(err, resp, "get repository by id")
	}
	r := toInternalRepository(repo)
	return &r, nil
}

// translateError maps go-github failures onto the typed taxonomy.
// Context errors pass through untouched so callers can tell cancellation apart.
func (c *Client) translateError(err error, resp *github.Response, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
		apiErr   error
	)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		apiErr = custom_errors.RateLimited(err)
	case errors.As(err, &respErr) && respErr.Response != nil:
		apiErr = custom_errors.FromStatus(respErr.Response.StatusCode, err)
	case resp != nil && resp.Response != nil:
		// A response arrived but could not be decoded.
		apiErr = custom_errors.Generic(resp.StatusCode, http.StatusText(resp.StatusCode), err)
	default:
		apiErr = custom_errors.NetworkUnreachable(err)
	}

	c.logger.Warn("GitHub API request failed", "op", op, "error", err)
	return apiErr
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	owner := r.GetOwner()
	return model.Repository{
		ID:       r.GetID(),
		Name:     r.GetName(),
		FullName: r.GetFullName(),
		Owner: model.Owner{
			ID:        owner.GetID(),
			Login:     owner.GetLogin(),
			AvatarURL: owner.GetAvatarURL(),
			HTMLURL:   owner.GetHTMLURL(),
		},
		Description:     r.Description,
		HTMLURL:         r.GetHTMLURL(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		Language:        r.Language,
		CreatedAt:       r.GetCreatedAt().Time,
		UpdatedAt:       r.GetUpdatedAt().Time,
	}
}
