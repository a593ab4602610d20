// Package coalition tracks member institutions, campaigns, and meetings.
package coalition

import (
	"context"

	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/platform"
)

const (
	membersKey   = "coalition_members"
	campaignsKey = "campaigns"
	meetingsKey  = "meetings"
)

// Campaign statuses.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

type Member struct {
	ID              platform.ID `json:"id"`
	InstitutionName string      `json:"institutionName"`
	State           string      `json:"state"`
	JoinDate        string      `json:"joinDate"`
	// Verified defaults to false and is flipped only by an external
	// moderation process; there is no operation for it here.
	Verified bool `json:"verified"`
}

func (m Member) RecordID() platform.ID { return m.ID }

type Campaign struct {
	ID          platform.ID `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	Supporters  int         `json:"supporters"`
	Status      string      `json:"status"`
}

func (c Campaign) RecordID() platform.ID { return c.ID }

type Meeting struct {
	ID    platform.ID `json:"id"`
	Title string      `json:"title"`
	Date  string      `json:"date"`
	Notes string      `json:"notes,omitempty"`
}

func (m Meeting) RecordID() platform.ID { return m.ID }

// Stats summarizes the coalition for the dashboard counters.
type Stats struct {
	Members         int `json:"members"`
	States          int `json:"states"`
	ActiveCampaigns int `json:"activeCampaigns"`
}

type Manager struct {
	members   *platform.Collection[Member]
	campaigns *platform.Collection[Campaign]
	meetings  *platform.Collection[Meeting]
}

func NewManager(ctx context.Context, store *kvstore.Store) *Manager {
	return &Manager{
		members:   platform.NewCollection(ctx, store, membersKey, []Member{}),
		campaigns: platform.NewCollection(ctx, store, campaignsKey, []Campaign{}),
		meetings:  platform.NewCollection(ctx, store, meetingsKey, []Meeting{}),
	}
}

// AddMember joins an institution to the coalition. Members are appended in
// join order and start unverified.
func (m *Manager) AddMember(ctx context.Context, institutionName, state string) Member {
	member := Member{
		ID:              platform.NewID(),
		InstitutionName: institutionName,
		State:           state,
		JoinDate:        platform.Today(),
	}
	return m.members.Append(ctx, member)
}

// CreateCampaign starts an active campaign with the creator as the first
// supporter.
func (m *Manager) CreateCampaign(ctx context.Context, title, description string) Campaign {
	campaign := Campaign{
		ID:          platform.NewID(),
		Title:       title,
		Description: description,
		StartDate:   platform.Today(),
		Supporters:  1,
		Status:      StatusActive,
	}
	return m.campaigns.Append(ctx, campaign)
}

// SupportCampaign adds one supporter. No-op when the campaign is missing.
func (m *Manager) SupportCampaign(ctx context.Context, id platform.ID) bool {
	return m.campaigns.Mutate(ctx, id, func(c *Campaign) {
		c.Supporters++
	})
}

// CloseCampaign moves a campaign to closed.
func (m *Manager) CloseCampaign(ctx context.Context, id platform.ID) bool {
	return m.campaigns.Mutate(ctx, id, func(c *Campaign) {
		c.Status = StatusClosed
	})
}

// ScheduleMeeting records a coordination meeting.
func (m *Manager) ScheduleMeeting(ctx context.Context, title, date, notes string) Meeting {
	meeting := Meeting{
		ID:    platform.NewID(),
		Title: title,
		Date:  date,
		Notes: notes,
	}
	return m.meetings.Append(ctx, meeting)
}

func (m *Manager) Members() []Member     { return m.members.Items() }
func (m *Manager) Campaigns() []Campaign { return m.campaigns.Items() }
func (m *Manager) Meetings() []Meeting   { return m.meetings.Items() }

// Stats counts members, distinct states, and active campaigns.
func (m *Manager) Stats() Stats {
	members := m.members.Items()
	states := make(map[string]struct{}, len(members))
	for _, member := range members {
		states[member.State] = struct{}{}
	}
	active := m.campaigns.Filter(func(c Campaign) bool {
		return c.Status == StatusActive
	})
	return Stats{
		Members:         len(members),
		States:          len(states),
		ActiveCampaigns: len(active),
	}
}

// SearchMembers filters members by case-insensitive substring over
// institution name and state.
func (m *Manager) SearchMembers(term string) []Member {
	return m.members.Filter(func(member Member) bool {
		return platform.ContainsFold(member.InstitutionName, term) ||
			platform.ContainsFold(member.State, term)
	})
}
