package api

import (
	"context"
	"net/http"

	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/report"
)

// RoomDivision is one room together with its lots
type RoomDivision struct {
	Room domain.Room  `json:"room"`
	Lots []domain.Lot `json:"lots"`
}

func (s *Server) dashboardView(ctx context.Context, _ *http.Request) (any, error) {
	recs, err := s.svc.Records(ctx)
	if err != nil {
		return nil, err
	}
	return report.Dashboard(recs.Rooms, recs.Clients, recs.Entries, s.now()), nil
}

func (s *Server) roomsView(ctx context.Context, _ *http.Request) (any, error) {
	rooms, err := s.svc.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rooms": rooms}, nil
}

func (s *Server) clientsView(ctx context.Context, _ *http.Request) (any, error) {
	clients, err := s.svc.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"clients": clients}, nil
}

func (s *Server) statusView(ctx context.Context, r *http.Request) (any, error) {
	q := r.URL.Query()
	f := report.RoomFilter{Floor: q.Get("floor"), Status: domain.Status(q.Get("status"))}
	if f.Floor != "" && !domain.ValidFloor(f.Floor) {
		return nil, domain.Invalid("floor", "unknown floor %q", f.Floor)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Invalid("status", "unknown status %q", f.Status)
	}
	rooms, err := s.svc.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"filter": f, "rooms": report.FilterRooms(rooms, f)}, nil
}

func (s *Server) reportView(ctx context.Context, r *http.Request) (any, error) {
	return s.buildReport(ctx, r)
}

func (s *Server) divisionView(ctx context.Context, _ *http.Request) (any, error) {
	recs, err := s.svc.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoomDivision, 0, len(recs.Rooms))
	for _, room := range recs.Rooms {
		lots := recs.Lots[room.ID]
		if lots == nil {
			lots = []domain.Lot{}
		}
		out = append(out, RoomDivision{Room: room, Lots: lots})
	}
	return map[string]any{"rooms": out}, nil
}

func (s *Server) buildReport(ctx context.Context, r *http.Request) (report.Report, error) {
	q := r.URL.Query()
	f := report.EntryFilter{
		RoomID:   q.Get("room"),
		ClientID: q.Get("client"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	entries, err := s.svc.ListEntries(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(entries, f)
}
