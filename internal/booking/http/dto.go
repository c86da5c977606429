package http

import (
	"time"

	"github.com/roomreserve/room-booking-backend/internal/booking"
	"github.com/roomreserve/room-booking-backend/internal/pkg/request"
	"github.com/roomreserve/room-booking-backend/internal/pkg/timeslot"
)

const dateLayout = "2006-01-02"

// CreateBookingBody is the JSON body for creating a booking. Times are
// wall-clock times of day on the given date.
type CreateBookingBody struct {
	RoomID    string `json:"room_id" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// UpdateBookingBody carries optional changes; omitted fields keep the current
// value.
type UpdateBookingBody struct {
	RoomID    *string `json:"room_id" binding:"omitempty,uuid"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// ApproveBookingBody decides a pending party-room booking.
type ApproveBookingBody struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ManagerCancelBody carries the reason forwarded to the notification channel.
type ManagerCancelBody struct {
	Reason string `json:"reason" binding:"required"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	RoomID string `form:"room_id" binding:"omitempty,uuid"`
	UserID string `form:"user_id"`
	Date   string `form:"date"`
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed"`
}

// BookingResponse is the JSON shape of a booking.
type BookingResponse struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Status      string    `json:"status"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		RoomID:      b.RoomID,
		UserID:      b.UserID,
		Date:        b.Date.Format(dateLayout),
		StartTime:   b.StartTime.String(),
		EndTime:     b.EndTime.String(),
		Status:      string(b.Status),
		IsConfirmed: b.Status == booking.StatusConfirmed,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func parseTimes(start, end string) (timeslot.TimeOfDay, timeslot.TimeOfDay, error) {
	s, err := timeslot.Parse(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := timeslot.Parse(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}
