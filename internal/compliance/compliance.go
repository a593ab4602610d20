// Package compliance tracks inspection experiences and models what the
// regulatory burden costs an institution.
package compliance

import (
	"context"
	"math"
	"sync"

	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/platform"
)

const (
	inspectionsKey = "inspections"
	costsKey       = "compliance_costs"
)

// Inspection statuses.
const (
	StatusCompleted = "completed"
	StatusUpcoming  = "upcoming"
	StatusScheduled = "scheduled"
)

// Inspection is one inspection experience. Completed inspections carry the
// hours spent; pending ones carry preparation days instead.
type Inspection struct {
	ID                platform.ID `json:"id"`
	Type              string      `json:"type"`
	Date              string      `json:"date"`
	Status            string      `json:"status"`
	DocumentsRequired int         `json:"documentsRequired"`
	HoursSpent        int         `json:"hoursSpent,omitempty"`
	PreparationDays   int         `json:"preparationDays,omitempty"`
	Outcome           string      `json:"outcome,omitempty"`
	SubmittedDate     string      `json:"submittedDate,omitempty"`
}

func (i Inspection) RecordID() platform.ID { return i.ID }

// DefaultInspections is the starter dataset for a fresh medium.
func DefaultInspections() []Inspection {
	return []Inspection{
		{
			ID:                1,
			Type:              "NCISM Annual Inspection",
			Date:              "2025-01-15",
			Status:            StatusCompleted,
			DocumentsRequired: 47,
			HoursSpent:        240,
			Outcome:           "Approved with observations",
		},
		{
			ID:                2,
			Type:              "QCI Quality Assessment",
			Date:              "2025-03-15",
			Status:            StatusUpcoming,
			DocumentsRequired: 32,
			PreparationDays:   45,
		},
		{
			ID:                3,
			Type:              "NAAC Accreditation Review",
			Date:              "2025-06-20",
			Status:            StatusScheduled,
			DocumentsRequired: 89,
			PreparationDays:   90,
		},
	}
}

// CostInput are the calculator's inputs: monthly compliance hours, staff
// involved, and the hourly cost in rupees.
type CostInput struct {
	Hours       float64 `json:"hours"`
	Staff       float64 `json:"staff"`
	CostPerHour float64 `json:"costPerHour"`
}

// CostBreakdown is the calculator's output. TeachingHoursLost and
// StudentsAffected are annualized; the student figure assumes four contact
// hours per student per month.
type CostBreakdown struct {
	Monthly           float64 `json:"monthly"`
	Annual            float64 `json:"annual"`
	TeachingHoursLost float64 `json:"teachingHoursLost"`
	StudentsAffected  int     `json:"studentsAffected"`
}

// CalculateCost models the monthly and annual cost of compliance work plus
// the opportunity cost in teaching terms.
func CalculateCost(in CostInput) CostBreakdown {
	monthly := in.Hours * in.Staff * in.CostPerHour
	teachingHoursLost := in.Hours * in.Staff
	studentsAffected := teachingHoursLost / 4

	return CostBreakdown{
		Monthly:           monthly,
		Annual:            monthly * 12,
		TeachingHoursLost: teachingHoursLost * 12,
		StudentsAffected:  int(math.Floor(studentsAffected * 12)),
	}
}

// CostRecord is a persisted calculator submission.
type CostRecord struct {
	Input     CostInput     `json:"input"`
	Breakdown CostBreakdown `json:"breakdown"`
	Date      string        `json:"date"`
}

// Tracker owns the inspection collection and the cost submissions.
type Tracker struct {
	inspections *platform.Collection[Inspection]

	mu    sync.Mutex
	store *kvstore.Store
	costs map[platform.ID]CostRecord
}

func NewTracker(ctx context.Context, store *kvstore.Store) *Tracker {
	return &Tracker{
		inspections: platform.NewCollection(ctx, store, inspectionsKey, DefaultInspections()),
		store:       store,
		costs:       kvstore.Get(ctx, store, costsKey, map[platform.ID]CostRecord{}),
	}
}

// Experience carries the caller-supplied fields of an inspection report.
type Experience struct {
	Type              string
	Date              string
	Status            string
	DocumentsRequired int
	HoursSpent        int
	PreparationDays   int
	Outcome           string
}

// AddExperience records a shared inspection experience, appended in
// submission order.
func (t *Tracker) AddExperience(ctx context.Context, exp Experience) Inspection {
	inspection := Inspection{
		ID:                platform.NewID(),
		Type:              exp.Type,
		Date:              exp.Date,
		Status:            exp.Status,
		DocumentsRequired: exp.DocumentsRequired,
		HoursSpent:        exp.HoursSpent,
		PreparationDays:   exp.PreparationDays,
		Outcome:           exp.Outcome,
		SubmittedDate:     platform.Today(),
	}
	return t.inspections.Append(ctx, inspection)
}

func (t *Tracker) Inspections() []Inspection {
	return t.inspections.Items()
}

// RecordCost runs the calculator and persists the submission so the burden
// data accumulates across sessions.
func (t *Tracker) RecordCost(ctx context.Context, in CostInput) CostBreakdown {
	breakdown := CalculateCost(in)

	t.mu.Lock()
	t.costs[platform.NewID()] = CostRecord{
		Input:     in,
		Breakdown: breakdown,
		Date:      platform.Today(),
	}
	t.store.Set(ctx, costsKey, t.costs)
	t.mu.Unlock()

	return breakdown
}

// CostRecords returns all persisted calculator submissions.
func (t *Tracker) CostRecords() map[platform.ID]CostRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[platform.ID]CostRecord, len(t.costs))
	for id, rec := range t.costs {
		out[id] = rec
	}
	return out
}
