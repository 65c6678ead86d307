package warehouse

import (
	"context"
	"math"
	"time"

	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
)

// DateLayout is the calendar date format of Entry.Date
const DateLayout = domain.DateLayout

// EntryInput holds the fields of an intake record
type EntryInput struct {
	Date        string  `json:"date"`
	BagCount    int     `json:"bagCount"`
	Weight      float64 `json:"weight"`
	ClientID    string  `json:"clientId"`
	RoomID      string  `json:"roomId"`
	ThreadColor string  `json:"threadColor,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// validate checks the input against the current snapshot and returns the
// resolved client and room names
func (in EntryInput) validate(sn *snapshot) (EntryInput, string, string, error) {
	in.Date = clean(in.Date)
	in.ClientID = clean(in.ClientID)
	in.RoomID = clean(in.RoomID)
	in.ThreadColor = clean(in.ThreadColor)
	in.Notes = clean(in.Notes)

	if in.Date == "" {
		return in, "", "", domain.Invalid("date", "date is required")
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return in, "", "", domain.Invalid("date", "date %q is not YYYY-MM-DD", in.Date)
	}
	if in.BagCount <= 0 {
		return in, "", "", domain.Invalid("bagCount", "bag count must be positive")
	}
	if math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) || in.Weight <= 0 {
		return in, "", "", domain.Invalid("weight", "weight must be a positive number of tons")
	}
	if in.ClientID == "" {
		return in, "", "", domain.Invalid("clientId", "client is required")
	}
	ci := sn.clientIndex(in.ClientID)
	if ci < 0 {
		return in, "", "", domain.Invalid("clientId", "client %s does not exist", in.ClientID)
	}
	if in.RoomID == "" {
		return in, "", "", domain.Invalid("roomId", "room is required")
	}
	ri := sn.roomIndex(in.RoomID)
	if ri < 0 {
		return in, "", "", domain.Invalid("roomId", "room %s does not exist", in.RoomID)
	}
	return in, sn.clients[ci].Name, sn.rooms[ri].Name, nil
}

// ListEntries returns every entry in insertion order
func (s *Service) ListEntries(ctx context.Context) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Get(ctx, s.st, store.EntriesKey)
}

// GetEntry returns one entry
func (s *Service) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Entry{}, domain.NotFound("entry", id)
}

// CreateEntry records an intake and recomputes its room
func (s *Service) CreateEntry(ctx context.Context, in EntryInput) (domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	in, clientName, roomName, err := in.validate(sn)
	if err != nil {
		return domain.Entry{}, err
	}

	e := domain.Entry{
		ID:          s.newID(),
		Date:        in.Date,
		BagCount:    in.BagCount,
		Weight:      in.Weight,
		ClientID:    in.ClientID,
		ClientName:  clientName,
		RoomID:      in.RoomID,
		RoomName:    roomName,
		ThreadColor: in.ThreadColor,
		Notes:       in.Notes,
	}
	sn.entries = append(sn.entries, e)
	sn.touch(store.EntriesKey.Name)
	s.recompute(sn, e.RoomID)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}

// UpdateEntry replaces the fields of an entry. Names are re-captured from the
// current client and room. When the room changes both rooms are recomputed;
// otherwise the room is recomputed only if bags or weight changed.
func (s *Service) UpdateEntry(ctx context.Context, id string, in EntryInput) (domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	i := sn.entryIndex(id)
	if i < 0 {
		return domain.Entry{}, domain.NotFound("entry", id)
	}
	in, clientName, roomName, err := in.validate(sn)
	if err != nil {
		return domain.Entry{}, err
	}

	old := sn.entries[i]
	sn.entries[i] = domain.Entry{
		ID:          id,
		Date:        in.Date,
		BagCount:    in.BagCount,
		Weight:      in.Weight,
		ClientID:    in.ClientID,
		ClientName:  clientName,
		RoomID:      in.RoomID,
		RoomName:    roomName,
		ThreadColor: in.ThreadColor,
		Notes:       in.Notes,
	}
	sn.touch(store.EntriesKey.Name)

	switch {
	case old.RoomID != in.RoomID:
		s.recompute(sn, old.RoomID, in.RoomID)
	case old.BagCount != in.BagCount || old.Weight != in.Weight:
		s.recompute(sn, in.RoomID)
	}

	if err := s.commit(ctx, sn); err != nil {
		return domain.Entry{}, err
	}
	return sn.entries[i], nil
}

// DeleteEntry removes an entry and recomputes its room
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := sn.entryIndex(id)
	if i < 0 {
		return domain.NotFound("entry", id)
	}

	roomID := sn.entries[i].RoomID
	sn.entries = append(sn.entries[:i], sn.entries[i+1:]...)
	sn.touch(store.EntriesKey.Name)
	s.recompute(sn, roomID)

	return s.commit(ctx, sn)
}
