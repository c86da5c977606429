package room

import (
	"net/http"
	"time"

	"github.com/roomreserve/room-booking-backend/internal/pkg/apperror"
	"github.com/roomreserve/room-booking-backend/internal/pkg/timeslot"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "room not found")
	ErrInvalidType     = apperror.Validation("invalid room type")
	ErrEmptyName       = apperror.Validation("name cannot be empty")
	ErrInvalidCapacity = apperror.Validation("capacity must be a positive integer")
	ErrPartialWindow   = apperror.Validation("date, start_time and end_time must be supplied together")
	ErrInvalidWindow   = apperror.Validation("start time must be before end time")
)

// Type is the closed set of room categories. A room's type never changes once
// assigned; there is deliberately no operation that updates it.
type Type string

const (
	TypeParty   Type = "party"
	TypeStudy   Type = "study"
	TypeHangout Type = "hangout"
)

// Valid reports whether t is a known room type.
func (t Type) Valid() bool {
	switch t {
	case TypeParty, TypeStudy, TypeHangout:
		return true
	}
	return false
}

// RequiresApproval reports whether bookings on rooms of this type need manager
// approval before they are confirmed.
func (t Type) RequiresApproval() bool {
	return t == TypeParty
}

// Room represents a bookable room in the catalog.
type Room struct {
	ID          string
	Name        string
	Type        Type
	Description string
	Capacity    int
	CreatedAt   time.Time
}

// Window is an optional availability search window. When present on a Filter,
// only rooms with no overlapping active booking inside it are returned.
type Window struct {
	Date  time.Time
	Start timeslot.TimeOfDay
	End   timeslot.TimeOfDay
}

// Filter defines parameters for listing rooms.
type Filter struct {
	Type     Type
	Window   *Window
	Page     int
	PageSize int
}
