// Package search provides cross-collection search over forum posts and
// coalition members, backed by Meilisearch when available and a local
// substring scan otherwise.
package search

import (
	"reformhub/api/internal/coalition"
	"reformhub/api/internal/forum"
)

// Results is the envelope returned by the search endpoint.
type Results struct {
	Posts   []forum.Post       `json:"posts"`
	Members []coalition.Member `json:"members"`
	Total   int                `json:"total"`
	Query   string             `json:"query"`
}

// Searcher can execute a query across posts and members.
type Searcher interface {
	Search(query string) ([]forum.Post, []coalition.Member, error)
	Healthy() bool
}
