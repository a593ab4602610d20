package search

import (
	"reformhub/api/internal/coalition"
	"reformhub/api/internal/forum"
)

// Local scans the in-memory collections directly. It is the always-available
// fallback and the entire search path when Meilisearch is not configured.
type Local struct {
	forum     *forum.Manager
	coalition *coalition.Manager
}

func NewLocal(forum *forum.Manager, coalition *coalition.Manager) *Local {
	return &Local{forum: forum, coalition: coalition}
}

func (l *Local) Search(query string) ([]forum.Post, []coalition.Member, error) {
	return l.forum.SearchPosts(query), l.coalition.SearchMembers(query), nil
}

func (l *Local) Healthy() bool {
	return true
}
