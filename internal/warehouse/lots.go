package warehouse

import (
	"context"

	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
)

// LotInput holds the editable fields of a lot
type LotInput struct {
	Number   string `json:"number"`
	BagCount int    `json:"bagCount"`
}

func (s *Service) validateLot(sn *snapshot, roomID, self string, in LotInput) (domain.LotNumber, error) {
	number := domain.LotNumber(clean(in.Number))
	if number == "" {
		return "", domain.Invalid("number", "lot number is required")
	}
	if in.BagCount <= 0 {
		return "", domain.Invalid("bagCount", "bag count must be positive")
	}
	for _, l := range sn.lots[roomID] {
		if l.ID != self && l.Number == number {
			return "", domain.Invalid("number", "lot %s already exists in this room", number)
		}
	}
	return number, nil
}

// ListLotsForRoom returns the lots filed under a room
func (s *Service) ListLotsForRoom(ctx context.Context, roomID string) ([]domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lots, err := store.Get(ctx, s.st, store.RoomLotsKey)
	if err != nil {
		return nil, err
	}
	if lots[roomID] == nil {
		return []domain.Lot{}, nil
	}
	return lots[roomID], nil
}

// CreateLot adds a lot to a room and recomputes the room
func (s *Service) CreateLot(ctx context.Context, roomID string, in LotInput) (domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Lot{}, err
	}
	if sn.roomIndex(roomID) < 0 {
		return domain.Lot{}, domain.NotFound("room", roomID)
	}
	number, err := s.validateLot(sn, roomID, "", in)
	if err != nil {
		return domain.Lot{}, err
	}

	lot := domain.Lot{ID: s.newID(), Number: number, BagCount: in.BagCount}
	sn.lots[roomID] = append(sn.lots[roomID], lot)
	sn.touch(store.RoomLotsKey.Name)
	s.recompute(sn, roomID)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Lot{}, err
	}
	return lot, nil
}

// UpdateLot changes the number or bag count of a lot
func (s *Service) UpdateLot(ctx context.Context, roomID, lotID string, in LotInput) (domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Lot{}, err
	}
	i := lotIndex(sn.lots[roomID], lotID)
	if i < 0 {
		return domain.Lot{}, domain.NotFound("lot", lotID)
	}
	number, err := s.validateLot(sn, roomID, lotID, in)
	if err != nil {
		return domain.Lot{}, err
	}

	sn.lots[roomID][i].Number = number
	sn.lots[roomID][i].BagCount = in.BagCount
	sn.touch(store.RoomLotsKey.Name)
	s.recompute(sn, roomID)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Lot{}, err
	}
	return sn.lots[roomID][i], nil
}

// DeleteLot removes a lot and recomputes the room
func (s *Service) DeleteLot(ctx context.Context, roomID, lotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return err
	}
	lots := sn.lots[roomID]
	i := lotIndex(lots, lotID)
	if i < 0 {
		return domain.NotFound("lot", lotID)
	}

	sn.lots[roomID] = append(lots[:i], lots[i+1:]...)
	sn.touch(store.RoomLotsKey.Name)
	s.recompute(sn, roomID)

	return s.commit(ctx, sn)
}

func lotIndex(lots []domain.Lot, id string) int {
	for i := range lots {
		if lots[i].ID == id {
			return i
		}
	}
	return -1
}
