package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/report"
	"github.com/pbaille/coldstore/internal/warehouse"
)

// viewFunc renders one named view from query parameters
type viewFunc func(ctx context.Context, r *http.Request) (any, error)

// Server handles HTTP requests for the warehouse
type Server struct {
	svc   *warehouse.Service
	addr  string
	log   *zap.Logger
	now   func() time.Time
	views map[string]viewFunc
}

// New creates a new API server
func New(svc *warehouse.Service, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, addr: addr, log: log, now: time.Now}
	s.views = map[string]viewFunc{
		"dashboard": s.dashboardView,
		"rooms":     s.roomsView,
		"clients":   s.clientsView,
		"status":    s.statusView,
		"report":    s.reportView,
		"division":  s.divisionView,
	}
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Rooms
	mux.HandleFunc("GET /rooms", s.listRooms)
	mux.HandleFunc("POST /rooms", s.createRoom)
	mux.HandleFunc("GET /rooms/{id}", s.getRoom)
	mux.HandleFunc("PUT /rooms/{id}", s.updateRoom)
	mux.HandleFunc("DELETE /rooms/{id}", s.deleteRoom)
	mux.HandleFunc("POST /rooms/{id}/toggle", s.toggleRoom)
	mux.HandleFunc("POST /rooms/{id}/recompute", s.recomputeRoom)

	// Lots
	mux.HandleFunc("GET /rooms/{id}/lots", s.listLots)
	mux.HandleFunc("POST /rooms/{id}/lots", s.createLot)
	mux.HandleFunc("PUT /rooms/{id}/lots/{lot}", s.updateLot)
	mux.HandleFunc("DELETE /rooms/{id}/lots/{lot}", s.deleteLot)

	// Clients
	mux.HandleFunc("GET /clients", s.listClients)
	mux.HandleFunc("POST /clients", s.createClient)
	mux.HandleFunc("PUT /clients/{id}", s.updateClient)
	mux.HandleFunc("DELETE /clients/{id}", s.deleteClient)

	// Entries
	mux.HandleFunc("GET /entries", s.listEntries)
	mux.HandleFunc("POST /entries", s.createEntry)
	mux.HandleFunc("GET /entries/{id}", s.getEntry)
	mux.HandleFunc("PUT /entries/{id}", s.updateEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.deleteEntry)

	// Read models
	mux.HandleFunc("GET /stats", s.stats)
	mux.HandleFunc("GET /report", s.report)
	mux.HandleFunc("GET /report.xlsx", s.reportXLSX)
	mux.HandleFunc("GET /views/{name}", s.view)

	mux.HandleFunc("POST /clear", s.clear)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return s.withLogging(withCORS(mux))
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.log.Info("starting server", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "rule": string(s.svc.Rule())})
}

// MutationResponse wraps a written record with any advisory warnings
type MutationResponse struct {
	Data     any                `json:"data"`
	Warnings warehouse.Warnings `json:"warnings,omitempty"`
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.ListRooms(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.svc.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req warehouse.RoomInput
	if !decode(w, r, &req) {
		return
	}
	room, warnings, err := s.svc.CreateRoom(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MutationResponse{Data: room, Warnings: warnings})
}

func (s *Server) updateRoom(w http.ResponseWriter, r *http.Request) {
	var req warehouse.RoomInput
	if !decode(w, r, &req) {
		return
	}
	room, warnings, err := s.svc.UpdateRoom(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Data: room, Warnings: warnings})
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRoom(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.svc.ToggleManualStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) recomputeRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rule := s.svc.Rule()
	if q := r.URL.Query().Get("rule"); q != "" {
		parsed, err := capacity.ParseRule(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule = parsed
	}
	recompute := s.svc.RecomputeFromEntries
	if rule == capacity.RuleLots {
		recompute = s.svc.RecomputeFromLots
	}
	agg, err := recompute(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (s *Server) listLots(w http.ResponseWriter, r *http.Request) {
	lots, err := s.svc.ListLotsForRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lots": lots})
}

func (s *Server) createLot(w http.ResponseWriter, r *http.Request) {
	var req warehouse.LotInput
	if !decode(w, r, &req) {
		return
	}
	lot, err := s.svc.CreateLot(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MutationResponse{Data: lot})
}

func (s *Server) updateLot(w http.ResponseWriter, r *http.Request) {
	var req warehouse.LotInput
	if !decode(w, r, &req) {
		return
	}
	lot, err := s.svc.UpdateLot(r.Context(), r.PathValue("id"), r.PathValue("lot"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Data: lot})
}

func (s *Server) deleteLot(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteLot(r.Context(), r.PathValue("id"), r.PathValue("lot")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.ListClients(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var req warehouse.ClientInput
	if !decode(w, r, &req) {
		return
	}
	c, warnings, err := s.svc.CreateClient(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MutationResponse{Data: c, Warnings: warnings})
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	var req warehouse.ClientInput
	if !decode(w, r, &req) {
		return
	}
	c, warnings, err := s.svc.UpdateClient(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Data: c, Warnings: warnings})
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ListEntries(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var req warehouse.EntryInput
	if !decode(w, r, &req) {
		return
	}
	e, err := s.svc.CreateEntry(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MutationResponse{Data: e})
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var req warehouse.EntryInput
	if !decode(w, r, &req) {
		return
	}
	e, err := s.svc.UpdateEntry(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Data: e})
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.renderView(w, r, "dashboard")
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	s.renderView(w, r, "report")
}

func (s *Server) reportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := s.buildReport(r.Context(), r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="report.xlsx"`)
	if err := report.WriteXLSX(w, rep); err != nil {
		s.log.Error("write xlsx", zap.Error(err))
	}
}

// ClearRequest must carry an explicit confirmation
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.ClearAll(r.Context(), req.Confirm); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	s.renderView(w, r, r.PathValue("name"))
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request, name string) {
	fn, ok := s.views[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown view: "+name)
		return
	}
	data, err := fn(r.Context(), r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var syntax *json.SyntaxError
		msg := "invalid request body"
		if errors.As(err, &syntax) {
			msg = "malformed JSON"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
