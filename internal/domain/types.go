package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Status is the occupancy of a room
type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusOccupied
}

// Flip returns the opposite status
func (s Status) Flip() Status {
	if s == StatusAvailable {
		return StatusOccupied
	}
	return StatusAvailable
}

// DateLayout is the calendar date format of Entry.Date
const DateLayout = "2006-01-02"

// Floors lists the floors a room can be placed on
var Floors = []string{"1", "2", "3", "4"}

// ValidFloor reports whether floor is one of Floors
func ValidFloor(floor string) bool {
	for _, f := range Floors {
		if f == floor {
			return true
		}
	}
	return false
}

// Room is a storage chamber. BagCount, TotalWeight and AutoStatus are derived.
type Room struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Floor        string  `json:"floor"`
	BagCount     int     `json:"bagCount"`
	TotalWeight  float64 `json:"totalWeight"`
	AutoStatus   Status  `json:"autoStatus"`
	ManualStatus *Status `json:"manualStatus,omitempty"`
}

// DisplayStatus is the status shown to users and used by filters
func (r Room) DisplayStatus() Status {
	if r.ManualStatus != nil && r.ManualStatus.Valid() {
		return *r.ManualStatus
	}
	if r.AutoStatus.Valid() {
		return r.AutoStatus
	}
	return StatusAvailable
}

// UnmarshalJSON accepts records written before the derived fields were renamed
// ("capacity" for bagCount, "status" for autoStatus) and defaults missing fields.
func (r *Room) UnmarshalJSON(data []byte) error {
	type plain Room
	aux := struct {
		*plain
		Capacity *int   `json:"capacity"`
		Status   Status `json:"status"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.BagCount == 0 && aux.Capacity != nil {
		r.BagCount = *aux.Capacity
	}
	if !r.AutoStatus.Valid() {
		r.AutoStatus = aux.Status
	}
	if !r.AutoStatus.Valid() {
		if r.BagCount > 0 {
			r.AutoStatus = StatusOccupied
		} else {
			r.AutoStatus = StatusAvailable
		}
	}
	if r.ManualStatus != nil && !r.ManualStatus.Valid() {
		r.ManualStatus = nil
	}
	return nil
}

// Client owns the goods placed in rooms
type Client struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone1 string `json:"phone1"`
	Phone2 string `json:"phone2,omitempty"`
}

// Entry is one intake transaction. ClientName and RoomName are snapshots taken
// when the entry was written and are not updated on later renames.
type Entry struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	BagCount    int     `json:"bagCount"`
	Weight      float64 `json:"weight"`
	ClientID    string  `json:"clientId"`
	ClientName  string  `json:"clientName"`
	RoomID      string  `json:"roomId"`
	RoomName    string  `json:"roomName"`
	ThreadColor string  `json:"threadColor,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// UnmarshalJSON accepts the legacy "bags" field name.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := struct {
		*plain
		Bags *int `json:"bags"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.BagCount == 0 && aux.Bags != nil {
		e.BagCount = *aux.Bags
	}
	return nil
}

// LotNumber is the label of a lot. Stored data may hold it as a string or a number.
type LotNumber string

func (n *LotNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = LotNumber(strings.TrimSpace(s))
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if i, err := f.Int64(); err == nil {
		*n = LotNumber(strconv.FormatInt(i, 10))
		return nil
	}
	*n = LotNumber(f.String())
	return nil
}

// Lot is a numbered division of a room's contents
type Lot struct {
	ID       string    `json:"id"`
	Number   LotNumber `json:"number"`
	BagCount int       `json:"bagCount"`
}

// UnmarshalJSON accepts the legacy "bags" field name.
func (l *Lot) UnmarshalJSON(data []byte) error {
	type plain Lot
	aux := struct {
		*plain
		Bags *int `json:"bags"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if l.BagCount == 0 && aux.Bags != nil {
		l.BagCount = *aux.Bags
	}
	return nil
}

// RoomLots maps a room id to its lots in insertion order
type RoomLots map[string][]Lot
