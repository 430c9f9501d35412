// internal/model/models.go
package model

import (
	"strings"
	"time"

	custom_errors "github-repo-explorer/internal/errors"
)

// MaxPerPage is the largest page size the search endpoint accepts.
const MaxPerPage = 100

// SortField is a search sort key accepted by the search endpoint.
type SortField string

const (
	SortStars            SortField = "stars"
	SortForks            SortField = "forks"
	SortHelpWantedIssues SortField = "help-wanted-issues"
	SortUpdated          SortField = "updated"
)

// Valid reports whether s is empty (best match) or a known sort field.
func (s SortField) Valid() bool {
	switch s {
	case "", SortStars, SortForks, SortHelpWantedIssues, SortUpdated:
		return true
	}
	return false
}

// SortOrder is the direction of a sorted search.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Valid reports whether o is empty or a known order.
func (o SortOrder) Valid() bool {
	return o == "" || o == OrderAsc || o == OrderDesc
}

// Owner is the account that owns a repository.
type Owner struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Repository represents the metadata of a GitHub repository.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           Owner     `json:"owner"`
	Description     *string   `json:"description"`
	HTMLURL         string    `json:"html_url"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Language        *string   `json:"language"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SearchParams identifies one page of a repository search. Two values are the
// same query iff every field is equal.
type SearchParams struct {
	Query   string    `json:"query"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
	Sort    SortField `json:"sort,omitempty"`
	Order   SortOrder `json:"order,omitempty"`
}

// Normalize trims the query, clamps PerPage to MaxPerPage and validates the rest.
func (p SearchParams) Normalize() (SearchParams, error) {
	p.Query = strings.TrimSpace(p.Query)
	if p.Query == "" {
		return p, custom_errors.InvalidRequest("search query must not be empty")
	}
	if p.Page < 1 {
		return p, custom_errors.InvalidRequest("page must be at least 1")
	}
	if p.PerPage < 1 {
		return p, custom_errors.InvalidRequest("per_page must be at least 1")
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if !p.Sort.Valid() {
		return p, custom_errors.InvalidRequest("unsupported sort field " + string(p.Sort))
	}
	if !p.Order.Valid() {
		return p, custom_errors.InvalidRequest("unsupported sort order " + string(p.Order))
	}
	return p, nil
}

// WithPage returns a copy of p pointing at another page of the same search.
func (p SearchParams) WithPage(page int) SearchParams {
	p.Page = page
	return p
}

// SearchResultPage is one page of repository search results.
type SearchResultPage struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []Repository `json:"items"`
	Page              int          `json:"page"`
	HasNextPage       bool         `json:"hasNextPage"`
}

// FavoriteEntry records when a repository was favorited.
type FavoriteEntry struct {
	ID      int64     `json:"id"`
	AddedAt time.Time `json:"addedAt"`
}

// FavoriteRepository is a favorited repository joined with its favorite timestamp.
type FavoriteRepository struct {
	Repository
	AddedAt time.Time `json:"addedAt"`
}
