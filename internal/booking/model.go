package booking

import (
	"net/http"
	"time"

	"github.com/roomreserve/room-booking-backend/internal/pkg/apperror"
	"github.com/roomreserve/room-booking-backend/internal/pkg/timeslot"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "booking not found")
	ErrRoomNotFound       = apperror.New(http.StatusNotFound, "room not found")
	ErrTimeConflict       = apperror.Conflict("time slot is already booked")
	ErrInvalidTimeRange   = apperror.Validation("start time must be before end time")
	ErrRoomTypeMismatch   = apperror.Policy("cannot move a booking to a different type of room")
	ErrApprovalNotAllowed = apperror.Policy("only party room bookings require approval")
)

// Status is the booking confirmation state. Cancelled is terminal: the record
// is removed, so it never appears on a stored row.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking reserves one room for a half-open time range on a calendar date.
type Booking struct {
	ID        string
	RoomID    string
	UserID    string
	Date      time.Time
	StartTime timeslot.TimeOfDay
	EndTime   timeslot.TimeOfDay
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the booking still occupies its slot.
func (b *Booking) Active() bool {
	return b.Status != StatusCancelled
}

// Filter defines parameters for listing bookings.
type Filter struct {
	RoomID   string
	UserID   string
	Date     *time.Time
	Status   Status
	Page     int
	PageSize int
}
