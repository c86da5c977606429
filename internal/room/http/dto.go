package http

import (
	"time"

	"github.com/roomreserve/room-booking-backend/internal/pkg/request"
	"github.com/roomreserve/room-booking-backend/internal/room"
)

// CreateRoomBody is the JSON body for adding a room to the catalog.
type CreateRoomBody struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"room_type" binding:"required,oneof=party study hangout"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
}

// ListRoomsRequest defines query parameters for listing rooms. Supplying
// date, start_time and end_time together turns the listing into an
// availability search.
type ListRoomsRequest struct {
	request.ListParams
	Type      string `form:"room_type" binding:"omitempty,oneof=party study hangout"`
	Date      string `form:"date"`
	StartTime string `form:"start_time"`
	EndTime   string `form:"end_time"`
}

// RoomResponse is the JSON shape of a catalog room.
type RoomResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"room_type"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewRoomResponse(r *room.Room) RoomResponse {
	return RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Type:        string(r.Type),
		Description: r.Description,
		Capacity:    r.Capacity,
		CreatedAt:   r.CreatedAt,
	}
}
