// Package notify stores the notification feed surfaced by the UI layer.
// Rendering and auto-dismiss are the client's concern; this package only
// records what happened.
package notify

import (
	"context"
	"time"

	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/platform"
)

const notificationsKey = "notifications"

// Importance levels.
const (
	ImportanceNormal = "normal"
	ImportanceUrgent = "urgent"
)

type Notification struct {
	ID         platform.ID `json:"id"`
	Type       string      `json:"type"`
	Message    string      `json:"message"`
	Importance string      `json:"importance"`
	Timestamp  time.Time   `json:"timestamp"`
	Read       bool        `json:"read"`
}

func (n Notification) RecordID() platform.ID { return n.ID }

type Manager struct {
	notifications *platform.Collection[Notification]
}

func NewManager(ctx context.Context, store *kvstore.Store) *Manager {
	return &Manager{
		notifications: platform.NewCollection(ctx, store, notificationsKey, []Notification{}),
	}
}

// Add prepends an unread notification; the feed is most-recent-first.
func (m *Manager) Add(ctx context.Context, typ, message, importance string) Notification {
	if importance == "" {
		importance = ImportanceNormal
	}
	notification := Notification{
		ID:         platform.NewID(),
		Type:       typ,
		Message:    message,
		Importance: importance,
		Timestamp:  time.Now().UTC(),
	}
	return m.notifications.Prepend(ctx, notification)
}

func (m *Manager) Notifications() []Notification {
	return m.notifications.Items()
}

// Unread counts notifications not yet marked read.
func (m *Manager) Unread() int {
	return len(m.notifications.Filter(func(n Notification) bool {
		return !n.Read
	}))
}

// MarkRead flags one notification as read. No-op when missing.
func (m *Manager) MarkRead(ctx context.Context, id platform.ID) bool {
	return m.notifications.Mutate(ctx, id, func(n *Notification) {
		n.Read = true
	})
}

func (m *Manager) Len() int {
	return m.notifications.Len()
}
