package coalition

import (
	"context"
	"testing"

	"reformhub/api/internal/kvstore"
)

func newTestManager() *Manager {
	store := kvstore.New(kvstore.NewMemoryMedium())
	return NewManager(context.Background(), store)
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	member := m.AddMember(ctx, "Gujarat Ayurved University", "Gujarat")
	if member.ID == 0 || member.JoinDate == "" {
		t.Errorf("generated fields missing: %+v", member)
	}
	if member.Verified {
		t.Error("new members must start unverified")
	}

	second := m.AddMember(ctx, "Kerala Ayurveda College", "Kerala")
	members := m.Members()
	if len(members) != 2 || members[0].ID != member.ID || members[1].ID != second.ID {
		t.Fatalf("members not appended in join order: %+v", members)
	}
}

func TestCampaignLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	campaign := m.CreateCampaign(ctx, "Single Annual Inspection", "Coordinate all reviews into one.")
	if campaign.Supporters != 1 {
		t.Errorf("expected creator as first supporter, got %d", campaign.Supporters)
	}
	if campaign.Status != StatusActive {
		t.Errorf("expected active status, got %s", campaign.Status)
	}

	t.Run("support increments by one", func(t *testing.T) {
		if !m.SupportCampaign(ctx, campaign.ID) {
			t.Fatal("expected support to land")
		}
		if got := m.Campaigns()[0].Supporters; got != 2 {
			t.Errorf("expected 2 supporters, got %d", got)
		}
	})

	t.Run("missing campaign is a no-op", func(t *testing.T) {
		if m.SupportCampaign(ctx, 424242) {
			t.Error("expected no-op for unknown campaign")
		}
	})

	t.Run("close", func(t *testing.T) {
		if !m.CloseCampaign(ctx, campaign.ID) {
			t.Fatal("expected close to land")
		}
		if got := m.Campaigns()[0].Status; got != StatusClosed {
			t.Errorf("expected closed, got %s", got)
		}
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	m.AddMember(ctx, "College A", "Kerala")
	m.AddMember(ctx, "College B", "Kerala")
	m.AddMember(ctx, "College C", "Tamil Nadu")
	active := m.CreateCampaign(ctx, "Active", "")
	closed := m.CreateCampaign(ctx, "Closing", "")
	m.CloseCampaign(ctx, closed.ID)

	stats := m.Stats()
	if stats.Members != 3 {
		t.Errorf("members = %d, want 3", stats.Members)
	}
	if stats.States != 2 {
		t.Errorf("states = %d, want 2", stats.States)
	}
	if stats.ActiveCampaigns != 1 {
		t.Errorf("active campaigns = %d, want 1", stats.ActiveCampaigns)
	}
	_ = active
}

func TestSearchMembers(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	m.AddMember(ctx, "Gujarat Ayurved University", "Gujarat")
	m.AddMember(ctx, "Kerala Ayurveda College", "Kerala")

	if got := m.SearchMembers("ayurved"); len(got) != 2 {
		t.Errorf("expected 2 institution matches, got %d", len(got))
	}
	if got := m.SearchMembers("KERALA"); len(got) != 1 {
		t.Errorf("expected 1 state match, got %d", len(got))
	}
	if got := m.SearchMembers("punjab"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestScheduleMeeting(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	meeting := m.ScheduleMeeting(ctx, "State coordinators sync", "2025-02-01", "Agenda: inspection calendar")
	if meeting.ID == 0 {
		t.Error("expected generated id")
	}
	if len(m.Meetings()) != 1 {
		t.Error("meeting not stored")
	}
}
