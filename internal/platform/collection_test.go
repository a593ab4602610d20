package platform

import (
	"context"
	"testing"

	"reformhub/api/internal/kvstore"
)

type note struct {
	ID   ID     `json:"id"`
	Body string `json:"body"`
}

func (n note) RecordID() ID { return n.ID }

func TestNewIDStrictlyIncreasing(t *testing.T) {
	prev := NewID()
	for i := 0; i < 1000; i++ {
		next := NewID()
		if next <= prev {
			t.Fatalf("id %d not greater than previous %d", next, prev)
		}
		prev = next
	}
}

func TestCollectionSeedUsedOnFirstRun(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryMedium())
	seed := []note{{ID: 1, Body: "seeded"}}

	c := NewCollection(ctx, store, "notes", seed)
	if c.Len() != 1 {
		t.Fatalf("expected seed to load, got %d items", c.Len())
	}

	// Once persisted, a later construction ignores the seed.
	c.Append(ctx, note{ID: 2, Body: "added"})
	again := NewCollection(ctx, store, "notes", []note{{ID: 99, Body: "other seed"}})
	items := again.Items()
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("expected persisted items over seed, got %+v", items)
	}
}

func TestCollectionOrdering(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryMedium())

	t.Run("append is chronological", func(t *testing.T) {
		c := NewCollection(ctx, store, "log", []note{})
		c.Append(ctx, note{ID: 1})
		c.Append(ctx, note{ID: 2})
		items := c.Items()
		if items[0].ID != 1 || items[1].ID != 2 {
			t.Fatalf("append order wrong: %+v", items)
		}
	})

	t.Run("prepend is most-recent-first", func(t *testing.T) {
		c := NewCollection(ctx, store, "feed", []note{})
		c.Prepend(ctx, note{ID: 1})
		c.Prepend(ctx, note{ID: 2})
		items := c.Items()
		if items[0].ID != 2 || items[1].ID != 1 {
			t.Fatalf("prepend order wrong: %+v", items)
		}
	})
}

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryMedium())

	c := NewCollection(ctx, store, "notes", []note{})
	c.Append(ctx, note{ID: 10, Body: "first"})
	c.Append(ctx, note{ID: 11, Body: "second"})
	c.Mutate(ctx, 11, func(n *note) { n.Body = "edited" })

	reloaded := NewCollection(ctx, store, "notes", []note{})
	got := reloaded.Items()
	want := c.Items()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("item %d mismatch: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestMutate(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryMedium())
	c := NewCollection(ctx, store, "notes", []note{{ID: 1, Body: "original"}})

	t.Run("applies updater", func(t *testing.T) {
		if !c.Mutate(ctx, 1, func(n *note) { n.Body = "changed" }) {
			t.Fatal("expected mutate to find id 1")
		}
		item, _ := c.Find(func(n note) bool { return n.ID == 1 })
		if item.Body != "changed" {
			t.Errorf("mutation not applied: %+v", item)
		}
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		if c.Mutate(ctx, 999, func(n *note) { n.Body = "ghost" }) {
			t.Fatal("expected mutate on missing id to report false")
		}
		if c.Len() != 1 {
			t.Errorf("collection changed by missing-id mutate")
		}
	})
}

func TestFilterAndFind(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryMedium())
	c := NewCollection(ctx, store, "notes", []note{
		{ID: 1, Body: "Documentation Burden"},
		{ID: 2, Body: "Teaching Joy"},
	})

	matches := c.Filter(func(n note) bool { return ContainsFold(n.Body, "DOCUMENTATION") })
	if len(matches) != 1 || matches[0].ID != 1 {
		t.Fatalf("case-insensitive filter failed: %+v", matches)
	}

	if _, ok := c.Find(func(n note) bool { return n.ID == 3 }); ok {
		t.Error("expected find miss for unknown id")
	}
}
