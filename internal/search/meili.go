package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"reformhub/api/internal/coalition"
	"reformhub/api/internal/forum"
)

const (
	idxPosts   = "reform_posts"
	idxMembers = "reform_members"
)

// Meili implements Searcher via Meilisearch. Whole entities are indexed, so
// hits decode straight back into domain records.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// The caller should proceed with the local fallback while unhealthy.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		searchable []string
	}{
		{
			uid:        idxPosts,
			searchable: []string{"subject", "content", "category"},
		},
		{
			uid:        idxMembers,
			searchable: []string{"institutionName", "state"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries both indexes and decodes the hits back into records.
func (m *Meili) Search(query string) ([]forum.Post, []coalition.Member, error) {
	if !m.healthy.Load() {
		return nil, nil, fmt.Errorf("meilisearch unhealthy")
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{
			{IndexUID: idxPosts, Query: query, Limit: 50},
			{IndexUID: idxMembers, Query: query, Limit: 50},
		},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var posts []forum.Post
	var members []coalition.Member
	for _, sr := range resp.Results {
		for _, hit := range sr.Hits {
			switch sr.IndexUID {
			case idxPosts:
				var post forum.Post
				if decodeHit(hit, &post) {
					posts = append(posts, post)
				}
			case idxMembers:
				var member coalition.Member
				if decodeHit(hit, &member) {
					members = append(members, member)
				}
			}
		}
	}
	return posts, members, nil
}

func decodeHit(hit meili.Hit, dst any) bool {
	raw, err := json.Marshal(hit)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("search: decode hit: %v", err)
		return false
	}
	return true
}

// IndexPost adds or updates a post in the search index.
func (m *Meili) IndexPost(post forum.Post) error {
	_, err := m.client.Index(idxPosts).AddDocuments([]forum.Post{post}, nil)
	return err
}

// IndexMember adds or updates a coalition member in the search index.
func (m *Meili) IndexMember(member coalition.Member) error {
	_, err := m.client.Index(idxMembers).AddDocuments([]coalition.Member{member}, nil)
	return err
}

// IndexPosts bulk-indexes posts.
func (m *Meili) IndexPosts(posts []forum.Post) error {
	if len(posts) == 0 {
		return nil
	}
	_, err := m.client.Index(idxPosts).AddDocuments(posts, nil)
	return err
}

// IndexMembers bulk-indexes members.
func (m *Meili) IndexMembers(members []coalition.Member) error {
	if len(members) == 0 {
		return nil
	}
	_, err := m.client.Index(idxMembers).AddDocuments(members, nil)
	return err
}
