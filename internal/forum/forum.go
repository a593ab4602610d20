// Package forum owns the discussion feed: posts, reactions, and post search.
package forum

import (
	"context"
	"sync"

	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/platform"
)

const (
	postsKey     = "forum_posts"
	reactionsKey = "post_reactions"
)

// Reaction kinds available on every post. The set is fixed; an unknown kind
// is ignored.
const (
	ReactionSupport   = "support"
	ReactionHelpful   = "helpful"
	ReactionConcerned = "concerned"
)

// ReactionCounts holds the per-post counters. Counts only ever increment.
type ReactionCounts struct {
	Support   int `json:"support"`
	Helpful   int `json:"helpful"`
	Concerned int `json:"concerned"`
}

type Reply struct {
	ID     platform.ID `json:"id"`
	Author string      `json:"author"`
	Body   string      `json:"body"`
	Date   string      `json:"date"`
}

type Post struct {
	ID          platform.ID    `json:"id"`
	Author      string         `json:"author"`
	AuthorID    platform.ID    `json:"authorId,omitempty"`
	UserRole    string         `json:"userRole,omitempty"`
	Institution string         `json:"institution,omitempty"`
	Category    string         `json:"category"`
	Subject     string         `json:"subject"`
	Content     string         `json:"content"`
	Date        string         `json:"date"`
	Reactions   ReactionCounts `json:"reactions"`
	Replies     []Reply        `json:"replies"`
}

func (p Post) RecordID() platform.ID { return p.ID }

// NewPost carries the caller-supplied fields of a post; everything else is
// generated on add.
type NewPost struct {
	Author      string
	AuthorID    platform.ID
	UserRole    string
	Institution string
	Category    string
	Subject     string
	Content     string
}

// Manager owns the forum collections. Posts are a most-recent-first feed;
// the reaction aggregate keeps per-post totals under their own key.
type Manager struct {
	posts *platform.Collection[Post]

	mu        sync.Mutex
	store     *kvstore.Store
	reactions map[platform.ID]ReactionCounts
}

func NewManager(ctx context.Context, store *kvstore.Store) *Manager {
	return &Manager{
		posts:     platform.NewCollection(ctx, store, postsKey, DefaultPosts()),
		store:     store,
		reactions: kvstore.Get(ctx, store, reactionsKey, map[platform.ID]ReactionCounts{}),
	}
}

// DefaultPosts is the starter dataset used the first time the platform runs
// against an empty medium.
func DefaultPosts() []Post {
	return []Post{
		{
			ID:       1,
			Author:   "Anonymous Principal",
			Date:     "2025-01-15",
			Category: "regulatory",
			Subject:  "NCISM Documentation Burden - A Principal's Perspective",
			Content:  "In 20 years of running an Ayurveda college, I've never seen such administrative burden. Last inspection required 347 documents. Our teachers spent 3 months preparing instead of teaching. Students are suffering.",
			Reactions: ReactionCounts{
				Support: 12, Helpful: 8, Concerned: 15,
			},
			Replies: []Reply{},
		},
		{
			ID:       2,
			Author:   "Anonymous Faculty",
			Date:     "2025-01-14",
			Category: "teaching",
			Subject:  "Lost the Joy of Teaching Ayurveda",
			Content:  "I became an Ayurveda teacher to share ancient wisdom and heal. Now I spend 70% of my time on compliance paperwork. My students see my stress and lose respect for this beautiful system. We need change NOW.",
			Reactions: ReactionCounts{
				Support: 28, Helpful: 5, Concerned: 22,
			},
			Replies: []Reply{},
		},
		{
			ID:       3,
			Author:   "Anonymous Student",
			Date:     "2025-01-13",
			Category: "support",
			Subject:  "Student Perspective: We're Not Learning, We're Just Passing Exams",
			Content:  "Our professors are always stressed about inspections. We get photocopied notes instead of passionate teaching. I chose Ayurveda to learn healing, but I'm learning bureaucracy instead.",
			Reactions: ReactionCounts{
				Support: 31, Helpful: 12, Concerned: 18,
			},
			Replies: []Reply{},
		},
	}
}

// AddPost creates a post and prepends it so the feed stays
// most-recent-first.
func (m *Manager) AddPost(ctx context.Context, np NewPost) Post {
	post := Post{
		ID:          platform.NewID(),
		Author:      np.Author,
		AuthorID:    np.AuthorID,
		UserRole:    np.UserRole,
		Institution: np.Institution,
		Category:    np.Category,
		Subject:     np.Subject,
		Content:     np.Content,
		Date:        platform.Today(),
		Replies:     []Reply{},
	}
	return m.posts.Prepend(ctx, post)
}

// React increments one named counter by one. Unknown post id or unknown
// reaction kind is a silent no-op.
func (m *Manager) React(ctx context.Context, id platform.ID, kind string) bool {
	switch kind {
	case ReactionSupport, ReactionHelpful, ReactionConcerned:
	default:
		return false
	}

	// m.mu is held across the post mutation so the aggregate written below
	// always reflects the counter it was derived from.
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated ReactionCounts
	found := m.posts.Mutate(ctx, id, func(p *Post) {
		bump(&p.Reactions, kind)
		updated = p.Reactions
	})
	if !found {
		return false
	}

	m.reactions[id] = updated
	m.store.Set(ctx, reactionsKey, m.reactions)
	return true
}

func bump(rc *ReactionCounts, kind string) {
	switch kind {
	case ReactionSupport:
		rc.Support++
	case ReactionHelpful:
		rc.Helpful++
	case ReactionConcerned:
		rc.Concerned++
	}
}

// AddReply appends a reply to a post. No-op when the post is missing.
func (m *Manager) AddReply(ctx context.Context, postID platform.ID, author, body string) bool {
	reply := Reply{
		ID:     platform.NewID(),
		Author: author,
		Body:   body,
		Date:   platform.Today(),
	}
	return m.posts.Mutate(ctx, postID, func(p *Post) {
		p.Replies = append(p.Replies, reply)
	})
}

// Posts returns the feed, newest first.
func (m *Manager) Posts() []Post {
	return m.posts.Items()
}

func (m *Manager) Post(id platform.ID) (Post, bool) {
	return m.posts.Find(func(p Post) bool { return p.ID == id })
}

// SearchPosts filters the feed by case-insensitive substring over subject,
// content, and category.
func (m *Manager) SearchPosts(term string) []Post {
	return m.posts.Filter(func(p Post) bool {
		return platform.ContainsFold(p.Subject, term) ||
			platform.ContainsFold(p.Content, term) ||
			platform.ContainsFold(p.Category, term)
	})
}
