// Package capacity derives a room's bag count, total weight and occupancy
// from the entries or lots filed against it.
//
// Exactly one rule is canonical for a running store. Mutations recompute with
// the canonical rule only; the other rule can still be evaluated, but its
// result is never written back to the room.
package capacity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pbaille/coldstore/internal/domain"
)

// Rule selects which source a room's aggregates are summed from
type Rule string

const (
	RuleEntries Rule = "entries"
	RuleLots    Rule = "lots"
)

// ParseRule validates a rule name
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case RuleEntries, RuleLots:
		return Rule(s), nil
	}
	return "", fmt.Errorf("unknown capacity rule %q (want %q or %q)", s, RuleEntries, RuleLots)
}

// DefaultWeightPerBag is the assumed weight of one bag in tons (50 kg)
var DefaultWeightPerBag = decimal.RequireFromString("0.05")

// Aggregate is the derived state of one room
type Aggregate struct {
	RoomID      string        `json:"roomId"`
	Rule        Rule          `json:"rule"`
	BagCount    int           `json:"bagCount"`
	TotalWeight float64       `json:"totalWeight"`
	Status      domain.Status `json:"autoStatus"`
	Applied     bool          `json:"applied"`
}

// StatusFor derives the automatic status from a bag count
func StatusFor(bags int) domain.Status {
	if bags > 0 {
		return domain.StatusOccupied
	}
	return domain.StatusAvailable
}

// FromEntries sums the bags and weight of every entry filed in the room
func FromEntries(roomID string, entries []domain.Entry) Aggregate {
	bags := 0
	weight := decimal.Zero
	for _, e := range entries {
		if e.RoomID != roomID {
			continue
		}
		bags += e.BagCount
		weight = weight.Add(decimal.NewFromFloat(e.Weight))
	}
	return Aggregate{
		RoomID:      roomID,
		Rule:        RuleEntries,
		BagCount:    bags,
		TotalWeight: weight.InexactFloat64(),
		Status:      StatusFor(bags),
	}
}

// FromLots sums the bags of the room's lots and estimates weight per bag
func FromLots(roomID string, lots []domain.Lot, weightPerBag decimal.Decimal) Aggregate {
	bags := 0
	for _, l := range lots {
		bags += l.BagCount
	}
	weight := weightPerBag.Mul(decimal.NewFromInt(int64(bags)))
	return Aggregate{
		RoomID:      roomID,
		Rule:        RuleLots,
		BagCount:    bags,
		TotalWeight: weight.InexactFloat64(),
		Status:      StatusFor(bags),
	}
}

// Engine evaluates the canonical rule
type Engine struct {
	rule         Rule
	weightPerBag decimal.Decimal
}

// NewEngine creates an Engine. A non-positive weightPerBag uses DefaultWeightPerBag.
func NewEngine(rule Rule, weightPerBag decimal.Decimal) *Engine {
	if rule == "" {
		rule = RuleEntries
	}
	if !weightPerBag.IsPositive() {
		weightPerBag = DefaultWeightPerBag
	}
	return &Engine{rule: rule, weightPerBag: weightPerBag}
}

// Rule returns the canonical rule
func (e *Engine) Rule() Rule { return e.rule }

// WeightPerBag returns the weight assumed by the lot rule
func (e *Engine) WeightPerBag() decimal.Decimal { return e.weightPerBag }

// Evaluate computes the aggregate of roomID under rule without touching any room
func (e *Engine) Evaluate(rule Rule, roomID string, entries []domain.Entry, lots domain.RoomLots) Aggregate {
	if rule == RuleLots {
		return FromLots(roomID, lots[roomID], e.weightPerBag)
	}
	return FromEntries(roomID, entries)
}

// Recompute evaluates the canonical rule for each room id and writes the
// result into rooms. Unknown ids are skipped. ManualStatus is never touched.
func (e *Engine) Recompute(rooms []domain.Room, entries []domain.Entry, lots domain.RoomLots, roomIDs ...string) []Aggregate {
	seen := make(map[string]bool, len(roomIDs))
	var out []Aggregate
	for _, id := range roomIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		agg := e.Evaluate(e.rule, id, entries, lots)
		agg.Applied = Apply(rooms, agg)
		out = append(out, agg)
	}
	return out
}

// Apply copies an aggregate onto the matching room
func Apply(rooms []domain.Room, agg Aggregate) bool {
	for i := range rooms {
		if rooms[i].ID == agg.RoomID {
			rooms[i].BagCount = agg.BagCount
			rooms[i].TotalWeight = agg.TotalWeight
			rooms[i].AutoStatus = agg.Status
			return true
		}
	}
	return false
}

// Toggle flips the displayed status into the manual override and returns it.
// The automatic status is left as is.
func Toggle(r *domain.Room) domain.Status {
	next := r.DisplayStatus().Flip()
	r.ManualStatus = &next
	return next
}
