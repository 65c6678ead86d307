// Package report builds the read-only views over stored records: the
// dashboard counters, the room status grid and the intake report.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbaille/coldstore/internal/domain"
)

// Stats are the dashboard counters
type Stats struct {
	Rooms         int             `json:"rooms"`
	Clients       int             `json:"clients"`
	TodayEntries  int             `json:"todayEntries"`
	OccupiedRooms int             `json:"occupiedRooms"`
	StoredBags    int             `json:"storedBags"`
	StoredWeight  decimal.Decimal `json:"storedWeight"`
}

// Dashboard counts records. Entries are "today" when their date equals now's calendar date.
func Dashboard(rooms []domain.Room, clients []domain.Client, entries []domain.Entry, now time.Time) Stats {
	today := now.Format(domain.DateLayout)
	st := Stats{Rooms: len(rooms), Clients: len(clients), StoredWeight: decimal.Zero}
	for _, e := range entries {
		if e.Date == today {
			st.TodayEntries++
		}
	}
	for _, r := range rooms {
		if r.DisplayStatus() == domain.StatusOccupied {
			st.OccupiedRooms++
		}
		st.StoredBags += r.BagCount
		st.StoredWeight = st.StoredWeight.Add(decimal.NewFromFloat(r.TotalWeight))
	}
	return st
}

// RoomFilter narrows the status grid. Empty fields match everything.
type RoomFilter struct {
	Floor  string        `json:"floor,omitempty"`
	Status domain.Status `json:"status,omitempty"`
}

// FilterRooms keeps rooms on the floor whose displayed status matches,
// ordered by floor then name
func FilterRooms(rooms []domain.Room, f RoomFilter) []domain.Room {
	out := []domain.Room{}
	for _, r := range rooms {
		if f.Floor != "" && r.Floor != f.Floor {
			continue
		}
		if f.Status != "" && r.DisplayStatus() != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// EntryFilter narrows the intake report. Dates are inclusive YYYY-MM-DD bounds.
type EntryFilter struct {
	RoomID   string `json:"roomId,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// Validate rejects bounds that are not YYYY-MM-DD dates
func (f EntryFilter) Validate() error {
	if f.From != "" {
		if _, err := time.Parse(domain.DateLayout, f.From); err != nil {
			return domain.Invalid("from", "date %q is not YYYY-MM-DD", f.From)
		}
	}
	if f.To != "" {
		if _, err := time.Parse(domain.DateLayout, f.To); err != nil {
			return domain.Invalid("to", "date %q is not YYYY-MM-DD", f.To)
		}
	}
	return nil
}

// Report is a filtered list of entries with totals
type Report struct {
	Filter      EntryFilter     `json:"filter"`
	Rows        []domain.Entry  `json:"rows"`
	TotalBags   int             `json:"totalBags"`
	TotalWeight decimal.Decimal `json:"totalWeight"`
}

// Build filters entries, sorts them newest first and sums the totals
func Build(entries []domain.Entry, f EntryFilter) (Report, error) {
	if err := f.Validate(); err != nil {
		return Report{}, err
	}

	rows := []domain.Entry{}
	for _, e := range entries {
		if f.RoomID != "" && e.RoomID != f.RoomID {
			continue
		}
		if f.ClientID != "" && e.ClientID != f.ClientID {
			continue
		}
		if f.From != "" && e.Date < f.From {
			continue
		}
		if f.To != "" && e.Date > f.To {
			continue
		}
		rows = append(rows, e)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	r := Report{Filter: f, Rows: rows, TotalWeight: decimal.Zero}
	for _, e := range rows {
		r.TotalBags += e.BagCount
		r.TotalWeight = r.TotalWeight.Add(decimal.NewFromFloat(e.Weight))
	}
	return r, nil
}
