package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
)

// RoomInput holds the editable fields of a room
type RoomInput struct {
	Name  string `json:"name"`
	Floor string `json:"floor"`
}

func (in RoomInput) validate() (RoomInput, error) {
	in.Name = clean(in.Name)
	in.Floor = clean(in.Floor)
	if in.Name == "" {
		return in, domain.Invalid("name", "room name is required")
	}
	if !domain.ValidFloor(in.Floor) {
		return in, domain.Invalid("floor", "unknown floor %q (want one of %v)", in.Floor, domain.Floors)
	}
	return in, nil
}

// ListRooms returns every room in insertion order
func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Get(ctx, s.st, store.RoomsKey)
}

// GetRoom returns one room
func (s *Service) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	for _, r := range rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Room{}, domain.NotFound("room", id)
}

func (s *Service) checkRoomPair(sn *snapshot, in RoomInput, self string, warnings *Warnings) error {
	for _, r := range sn.rooms {
		if r.ID != self && r.Name == in.Name && r.Floor == in.Floor {
			return s.duplicate(warnings, "name", fmt.Sprintf("room %q already exists on floor %s", in.Name, in.Floor))
		}
	}
	return nil
}

// CreateRoom adds an empty, available room with no manual override
func (s *Service) CreateRoom(ctx context.Context, in RoomInput) (domain.Room, Warnings, error) {
	in, err := in.validate()
	if err != nil {
		return domain.Room{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Room{}, nil, err
	}
	var warnings Warnings
	if err := s.checkRoomPair(sn, in, "", &warnings); err != nil {
		return domain.Room{}, nil, err
	}

	room := domain.Room{
		ID:         s.newID(),
		Name:       in.Name,
		Floor:      in.Floor,
		AutoStatus: domain.StatusAvailable,
	}
	sn.rooms = append(sn.rooms, room)
	sn.touch(store.RoomsKey.Name)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Room{}, nil, err
	}
	return room, warnings, nil
}

// UpdateRoom renames or moves a room. Entries keep the room name they were written with.
func (s *Service) UpdateRoom(ctx context.Context, id string, in RoomInput) (domain.Room, Warnings, error) {
	in, err := in.validate()
	if err != nil {
		return domain.Room{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Room{}, nil, err
	}
	i := sn.roomIndex(id)
	if i < 0 {
		return domain.Room{}, nil, domain.NotFound("room", id)
	}
	var warnings Warnings
	if err := s.checkRoomPair(sn, in, id, &warnings); err != nil {
		return domain.Room{}, nil, err
	}

	sn.rooms[i].Name = in.Name
	sn.rooms[i].Floor = in.Floor
	sn.touch(store.RoomsKey.Name)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Room{}, nil, err
	}
	return sn.rooms[i], warnings, nil
}

// DeleteRoom removes a room with all of its entries and lots
func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := sn.roomIndex(id)
	if i < 0 {
		return domain.NotFound("room", id)
	}

	sn.rooms = append(sn.rooms[:i], sn.rooms[i+1:]...)
	kept := sn.entries[:0]
	removed := 0
	for _, e := range sn.entries {
		if e.RoomID == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	sn.entries = kept
	lots := len(sn.lots[id])
	delete(sn.lots, id)
	sn.touch(store.RoomsKey.Name, store.EntriesKey.Name, store.RoomLotsKey.Name)

	if err := s.commit(ctx, sn); err != nil {
		return err
	}
	s.log.Info("room deleted",
		zap.String("room_id", id),
		zap.Int("entries_removed", removed),
		zap.Int("lots_removed", lots),
	)
	return nil
}

// ToggleManualStatus flips the displayed status of a room into its manual
// override. There is no way to clear the override; toggle again instead.
func (s *Service) ToggleManualStatus(ctx context.Context, id string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	i := sn.roomIndex(id)
	if i < 0 {
		return domain.Room{}, domain.NotFound("room", id)
	}
	capacity.Toggle(&sn.rooms[i])
	sn.touch(store.RoomsKey.Name)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Room{}, err
	}
	return sn.rooms[i], nil
}

// RecomputeFromEntries evaluates the entry rule for a room. The result is
// written only when entries are the canonical source.
func (s *Service) RecomputeFromEntries(ctx context.Context, roomID string) (capacity.Aggregate, error) {
	return s.recomputeWith(ctx, capacity.RuleEntries, roomID)
}

// RecomputeFromLots evaluates the lot rule for a room. The result is written
// only when lots are the canonical source.
func (s *Service) RecomputeFromLots(ctx context.Context, roomID string) (capacity.Aggregate, error) {
	return s.recomputeWith(ctx, capacity.RuleLots, roomID)
}

func (s *Service) recomputeWith(ctx context.Context, rule capacity.Rule, roomID string) (capacity.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return capacity.Aggregate{}, err
	}
	if sn.roomIndex(roomID) < 0 {
		return capacity.Aggregate{}, domain.NotFound("room", roomID)
	}

	if rule != s.engine.Rule() {
		return s.engine.Evaluate(rule, roomID, sn.entries, sn.lots), nil
	}

	aggs := s.engine.Recompute(sn.rooms, sn.entries, sn.lots, roomID)
	sn.touch(store.RoomsKey.Name)
	if err := s.commit(ctx, sn); err != nil {
		return capacity.Aggregate{}, err
	}
	return aggs[0], nil
}

// RecomputeAll re-derives every room with the canonical rule
func (s *Service) RecomputeAll(ctx context.Context) ([]capacity.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(sn.rooms))
	for i, r := range sn.rooms {
		ids[i] = r.ID
	}
	aggs := s.engine.Recompute(sn.rooms, sn.entries, sn.lots, ids...)
	sn.touch(store.RoomsKey.Name)
	if err := s.commit(ctx, sn); err != nil {
		return nil, err
	}
	return aggs, nil
}
