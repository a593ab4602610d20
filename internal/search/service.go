package search

import (
	"log"

	"reformhub/api/internal/coalition"
	"reformhub/api/internal/forum"
)

// Service is the facade that tries Meilisearch first and falls back to the
// local substring scan.
type Service struct {
	meili *Meili
	local *Local
}

// NewService creates a search service. meili may be nil when Meilisearch is
// not configured.
func NewService(meili *Meili, local *Local) *Service {
	return &Service{meili: meili, local: local}
}

// Search queries Meilisearch if healthy, otherwise the local scan. Errors
// never surface to the caller; the worst outcome is an empty result set.
func (s *Service) Search(query string) Results {
	if s.meili != nil && s.meili.Healthy() {
		posts, members, err := s.meili.Search(query)
		if err == nil {
			return buildResults(query, posts, members)
		}
		log.Printf("search: meilisearch error, falling back to local scan: %v", err)
	}

	posts, members, err := s.local.Search(query)
	if err != nil {
		log.Printf("search: local scan error: %v", err)
		return buildResults(query, nil, nil)
	}
	return buildResults(query, posts, members)
}

// IndexPost indexes a post (fire-and-forget to Meilisearch).
func (s *Service) IndexPost(post forum.Post) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPost(post); err != nil {
			log.Printf("search: index post %d: %v", post.ID, err)
		}
	}()
}

// IndexMember indexes a coalition member (fire-and-forget to Meilisearch).
func (s *Service) IndexMember(member coalition.Member) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexMember(member); err != nil {
			log.Printf("search: index member %d: %v", member.ID, err)
		}
	}()
}

// ReindexAll pushes the full collections into Meilisearch. Called during
// bootstrap so seeded records are searchable immediately.
func (s *Service) ReindexAll(posts []forum.Post, members []coalition.Member) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if err := s.meili.IndexPosts(posts); err != nil {
		log.Printf("search: reindex posts: %v", err)
	}
	if err := s.meili.IndexMembers(members); err != nil {
		log.Printf("search: reindex members: %v", err)
	}
}

func buildResults(query string, posts []forum.Post, members []coalition.Member) Results {
	if posts == nil {
		posts = []forum.Post{}
	}
	if members == nil {
		members = []coalition.Member{}
	}
	return Results{
		Posts:   posts,
		Members: members,
		Total:   len(posts) + len(members),
		Query:   query,
	}
}
