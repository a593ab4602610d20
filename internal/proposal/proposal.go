// Package proposal generates and stores reform proposals.
package proposal

import (
	"context"

	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/platform"
)

const proposalsKey = "proposals"

// Proposal statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

type Proposal struct {
	ID          platform.ID `json:"id"`
	Title       string      `json:"title"`
	Problem     string      `json:"problem"`
	Solution    string      `json:"solution"`
	CreatedDate string      `json:"createdDate"`
	Status      string      `json:"status"`
	Supporters  int         `json:"supporters"`
}

func (p Proposal) RecordID() platform.ID { return p.ID }

// Template is a ready-made proposal skeleton.
type Template struct {
	Title    string `json:"title"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

// Templates returns the fixed template set keyed by topic.
func Templates() map[string]Template {
	return map[string]Template{
		"documentation": {
			Title:    "Streamlining Documentation Requirements",
			Problem:  "Current documentation requirements are excessive and repetitive, taking valuable time away from actual teaching and learning.",
			Solution: "Implement a unified digital documentation system with automated reporting features to reduce manual paperwork by 60%.",
		},
		"inspection": {
			Title:    "Reforming Inspection Frequency and Process",
			Problem:  "Multiple overlapping inspections throughout the year create a perpetual state of preparation mode, disrupting academic calendar.",
			Solution: "Coordinate all regulatory inspections into a single comprehensive annual review with standardized criteria.",
		},
		"teaching": {
			Title:    "Protecting Teaching Time and Academic Freedom",
			Problem:  "Excessive compliance requirements are reducing actual teaching hours and constraining pedagogical innovation.",
			Solution: "Establish protected teaching time blocks where compliance activities are prohibited, ensuring minimum contact hours with students.",
		},
	}
}

// Overrides customizes a template before generation; empty fields keep the
// template's text.
type Overrides struct {
	Title    string
	Problem  string
	Solution string
}

// Generator owns the proposal collection.
type Generator struct {
	proposals *platform.Collection[Proposal]
}

func NewGenerator(ctx context.Context, store *kvstore.Store) *Generator {
	return &Generator{
		proposals: platform.NewCollection(ctx, store, proposalsKey, []Proposal{}),
	}
}

// FromTemplate builds an unsaved draft from a template. Returns false for
// an unknown template key.
func (g *Generator) FromTemplate(key string, overrides Overrides) (Proposal, bool) {
	template, ok := Templates()[key]
	if !ok {
		return Proposal{}, false
	}

	draft := Proposal{
		ID:          platform.NewID(),
		Title:       template.Title,
		Problem:     template.Problem,
		Solution:    template.Solution,
		CreatedDate: platform.Today(),
		Status:      StatusDraft,
	}
	if overrides.Title != "" {
		draft.Title = overrides.Title
	}
	if overrides.Problem != "" {
		draft.Problem = overrides.Problem
	}
	if overrides.Solution != "" {
		draft.Solution = overrides.Solution
	}
	return draft, true
}

// Save stores a proposal as a draft with the author as its first supporter,
// appended in creation order.
func (g *Generator) Save(ctx context.Context, title, problem, solution string) Proposal {
	proposal := Proposal{
		ID:          platform.NewID(),
		Title:       title,
		Problem:     problem,
		Solution:    solution,
		CreatedDate: platform.Today(),
		Status:      StatusDraft,
		Supporters:  1,
	}
	return g.proposals.Append(ctx, proposal)
}

// Submit moves a draft to submitted. No-op when the proposal is missing.
func (g *Generator) Submit(ctx context.Context, id platform.ID) bool {
	return g.proposals.Mutate(ctx, id, func(p *Proposal) {
		p.Status = StatusSubmitted
	})
}

// Support adds one supporter.
func (g *Generator) Support(ctx context.Context, id platform.ID) bool {
	return g.proposals.Mutate(ctx, id, func(p *Proposal) {
		p.Supporters++
	})
}

func (g *Generator) Proposals() []Proposal {
	return g.proposals.Items()
}

func (g *Generator) Proposal(id platform.ID) (Proposal, bool) {
	return g.proposals.Find(func(p Proposal) bool { return p.ID == id })
}
