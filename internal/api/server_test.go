package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
	"github.com/pbaille/coldstore/internal/warehouse"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	n := 0
	svc := warehouse.New(store.New(store.NewMemory(), nil), warehouse.Options{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	s := New(svc, ":0", nil)
	s.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type roomResponse struct {
	Data     domain.Room `json:"data"`
	Warnings []string    `json:"warnings"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "entries", body["rule"])
}

func TestRoomEntryFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	room := decodeBody[roomResponse](t, resp).Data
	assert.Equal(t, domain.StatusAvailable, room.AutoStatus)

	resp = do(t, ts, http.MethodPost, "/clients", warehouse.ClientInput{Name: "Anwar", Phone1: "0100"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/entries", warehouse.EntryInput{
		Date: "2024-03-05", BagCount: 10, Weight: 0.5, ClientID: "id-2", RoomID: room.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/rooms/"+room.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.Room](t, resp)
	assert.Equal(t, 10, got.BagCount)
	assert.Equal(t, 0.5, got.TotalWeight)
	assert.Equal(t, domain.StatusOccupied, got.DisplayStatus())

	resp = do(t, ts, http.MethodPost, "/rooms/"+room.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody[domain.Room](t, resp)
	assert.Equal(t, domain.StatusAvailable, toggled.DisplayStatus())

	resp = do(t, ts, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody[map[string]any](t, resp)
	assert.Equal(t, float64(1), stats["todayEntries"])
	assert.Equal(t, float64(0), stats["occupiedRooms"])
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "", Floor: "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/rooms/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/rooms/nope/toggle", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/rooms", bytes.NewBufferString("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestDuplicateRoomWarns(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})
	resp := do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decodeBody[roomResponse](t, resp).Warnings, 1)
}

func TestClearRequiresConfirmation(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})

	resp := do(t, ts, http.MethodPost, "/clear", ClearRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/rooms", nil)
	rooms := decodeBody[map[string][]domain.Room](t, resp)
	assert.Len(t, rooms["rooms"], 1)

	resp = do(t, ts, http.MethodPost, "/clear", ClearRequest{Confirm: true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/rooms", nil)
	rooms = decodeBody[map[string][]domain.Room](t, resp)
	assert.Empty(t, rooms["rooms"])
}

func TestViews(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})
	do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "B", Floor: "2"})
	resp := do(t, ts, http.MethodPost, "/rooms/id-1/lots", warehouse.LotInput{Number: "7", BagCount: 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, name := range []string{"dashboard", "rooms", "clients", "status", "report", "division"} {
		resp := do(t, ts, http.MethodGet, "/views/"+name, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, name)
	}

	resp = do(t, ts, http.MethodGet, "/views/settings", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/views/status?floor=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeBody[struct {
		Rooms []domain.Room `json:"rooms"`
	}](t, resp)
	require.Len(t, status.Rooms, 1)
	assert.Equal(t, "B", status.Rooms[0].Name)

	resp = do(t, ts, http.MethodGet, "/views/status?floor=9", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/views/division", nil)
	division := decodeBody[struct {
		Rooms []RoomDivision `json:"rooms"`
	}](t, resp)
	require.Len(t, division.Rooms, 2)
	require.Len(t, division.Rooms[0].Lots, 1)
	assert.Equal(t, domain.LotNumber("7"), division.Rooms[0].Lots[0].Number)
	assert.Empty(t, division.Rooms[1].Lots)
}

func TestReportXLSX(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})
	do(t, ts, http.MethodPost, "/clients", warehouse.ClientInput{Name: "Anwar", Phone1: "0100"})
	do(t, ts, http.MethodPost, "/entries", warehouse.EntryInput{
		Date: "2024-03-05", BagCount: 4, Weight: 0.2, ClientID: "id-2", RoomID: "id-1",
	})

	resp := do(t, ts, http.MethodGet, "/report.xlsx?room=id-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Anwar", rows[1][1])
}

func TestRecomputeRule(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, http.MethodPost, "/rooms", warehouse.RoomInput{Name: "A", Floor: "1"})
	do(t, ts, http.MethodPost, "/rooms/id-1/lots", warehouse.LotInput{Number: "1", BagCount: 4})

	resp := do(t, ts, http.MethodPost, "/rooms/id-1/recompute?rule=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/rooms/id-1/recompute?rule=lots", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decodeBody[capacity.Aggregate](t, resp)
	assert.Equal(t, capacity.RuleLots, preview.Rule)
	assert.Equal(t, 4, preview.BagCount)
	assert.False(t, preview.Applied)

	resp = do(t, ts, http.MethodPost, "/rooms/id-1/recompute", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	agg := decodeBody[capacity.Aggregate](t, resp)
	assert.Equal(t, capacity.RuleEntries, agg.Rule)
	assert.True(t, agg.Applied)
}

func TestReportRejectsMalformedDates(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{
		"/report?from=2024-3-1",
		"/report?to=tomorrow",
		"/report.xlsx?from=2024-3-1",
		"/views/report?to=2024-13-01",
	} {
		resp := do(t, ts, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}

	resp := do(t, ts, http.MethodGet, "/report?from=2024-03-01&to=2024-03-31", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusViewSortsByFloorThenName(t *testing.T) {
	ts := newTestServer(t)
	for _, in := range []warehouse.RoomInput{
		{Name: "C", Floor: "2"},
		{Name: "B", Floor: "1"},
		{Name: "A", Floor: "2"},
	} {
		resp := do(t, ts, http.MethodPost, "/rooms", in)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := do(t, ts, http.MethodGet, "/views/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeBody[struct {
		Rooms []domain.Room `json:"rooms"`
	}](t, resp)
	names := make([]string, len(status.Rooms))
	for i, r := range status.Rooms {
		names[i] = r.Floor + r.Name
	}
	assert.Equal(t, []string{"1B", "2A", "2C"}, names)
}
