package capacity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/coldstore/internal/domain"
)

func TestParseRule(t *testing.T) {
	r, err := ParseRule("lots")
	require.NoError(t, err)
	assert.Equal(t, RuleLots, r)

	_, err = ParseRule("both")
	assert.Error(t, err)
}

func TestFromEntries(t *testing.T) {
	entries := []domain.Entry{
		{RoomID: "a", BagCount: 10, Weight: 0.1},
		{RoomID: "b", BagCount: 99, Weight: 9},
		{RoomID: "a", BagCount: 5, Weight: 0.2},
	}

	agg := FromEntries("a", entries)
	assert.Equal(t, 15, agg.BagCount)
	assert.Equal(t, 0.3, agg.TotalWeight, "decimal sum avoids 0.30000000000000004")
	assert.Equal(t, domain.StatusOccupied, agg.Status)
	assert.Equal(t, RuleEntries, agg.Rule)

	tiny := FromEntries("t", []domain.Entry{{RoomID: "t", BagCount: 1, Weight: 0.0004}})
	assert.Equal(t, 0.0004, tiny.TotalWeight, "sub-kilogram weight is kept")
	assert.Equal(t, domain.StatusOccupied, tiny.Status)

	empty := FromEntries("c", entries)
	assert.Equal(t, 0, empty.BagCount)
	assert.Equal(t, 0.0, empty.TotalWeight)
	assert.Equal(t, domain.StatusAvailable, empty.Status)
}

func TestFromLots(t *testing.T) {
	lots := []domain.Lot{{BagCount: 20}, {BagCount: 3}}

	agg := FromLots("a", lots, DefaultWeightPerBag)
	assert.Equal(t, 23, agg.BagCount)
	assert.Equal(t, 1.15, agg.TotalWeight)
	assert.Equal(t, domain.StatusOccupied, agg.Status)

	agg = FromLots("a", nil, DefaultWeightPerBag)
	assert.Equal(t, domain.StatusAvailable, agg.Status)
}

func TestRecomputeUsesOnlyCanonicalRule(t *testing.T) {
	entries := []domain.Entry{{RoomID: "a", BagCount: 10, Weight: 1.5}}
	lots := domain.RoomLots{"a": {{BagCount: 40}}}

	tests := []struct {
		name   string
		rule   Rule
		bags   int
		weight float64
	}{
		{"entries", RuleEntries, 10, 1.5},
		{"lots", RuleLots, 40, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := []domain.Room{{ID: "a", AutoStatus: domain.StatusAvailable}}
			eng := NewEngine(tt.rule, decimal.Zero)

			aggs := eng.Recompute(rooms, entries, lots, "a", "a", "missing")
			require.Len(t, aggs, 2)
			assert.True(t, aggs[0].Applied)
			assert.False(t, aggs[1].Applied)

			assert.Equal(t, tt.bags, rooms[0].BagCount)
			assert.Equal(t, tt.weight, rooms[0].TotalWeight)
			assert.Equal(t, domain.StatusOccupied, rooms[0].AutoStatus)
		})
	}
}

func TestRecomputeKeepsManualStatus(t *testing.T) {
	manual := domain.StatusAvailable
	rooms := []domain.Room{{ID: "a", AutoStatus: domain.StatusAvailable, ManualStatus: &manual}}
	eng := NewEngine(RuleEntries, DefaultWeightPerBag)

	eng.Recompute(rooms, []domain.Entry{{RoomID: "a", BagCount: 3, Weight: 0.3}}, nil, "a")
	assert.Equal(t, domain.StatusOccupied, rooms[0].AutoStatus)
	assert.Equal(t, domain.StatusAvailable, rooms[0].DisplayStatus())
}

func TestToggleTwiceRestoresDisplay(t *testing.T) {
	r := domain.Room{ID: "a", BagCount: 5, AutoStatus: domain.StatusOccupied}

	assert.Equal(t, domain.StatusAvailable, Toggle(&r))
	assert.Equal(t, domain.StatusAvailable, r.DisplayStatus())

	// auto status changes underneath do not leak through
	r.AutoStatus = domain.StatusAvailable
	assert.Equal(t, domain.StatusAvailable, r.DisplayStatus())

	assert.Equal(t, domain.StatusOccupied, Toggle(&r))
	assert.Equal(t, domain.StatusOccupied, r.DisplayStatus())
	assert.Equal(t, domain.StatusAvailable, r.AutoStatus)
}

func TestNewEngineDefaults(t *testing.T) {
	eng := NewEngine("", decimal.NewFromInt(-1))
	assert.Equal(t, RuleEntries, eng.Rule())
	assert.True(t, eng.WeightPerBag().Equal(DefaultWeightPerBag))
}
