package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roomreserve/room-booking-backend/internal/pkg/timeslot"
	"github.com/roomreserve/room-booking-backend/internal/room"
)

type CreateRequest struct {
	RoomID    string
	UserID    string
	Date      time.Time
	StartTime timeslot.TimeOfDay
	EndTime   timeslot.TimeOfDay
}

// UpdateRequest carries the changes for Modify. Nil fields keep the booking's
// current value.
type UpdateRequest struct {
	RoomID    *string
	Date      *time.Time
	StartTime *timeslot.TimeOfDay
	EndTime   *timeslot.TimeOfDay
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Modify(ctx context.Context, id string, req UpdateRequest) (*Booking, error)
	Approve(ctx context.Context, id string, approve bool) (*Booking, error)
	Cancel(ctx context.Context, id string, userID string) error
	CancelWithReason(ctx context.Context, id string, reason string) error
}

type service struct {
	repo        Repository
	roomService room.Service
	notifier    Notifier
	logger      *zap.Logger
}

func NewService(repo Repository, roomService room.Service, notifier Notifier, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		roomService: roomService,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if !req.StartTime.Valid() || !req.EndTime.Valid() || req.StartTime >= req.EndTime {
		return nil, ErrInvalidTimeRange
	}

	rm, err := s.roomService.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// Party rooms wait for manager approval; every other type confirms on
	// creation.
	status := StatusConfirmed
	if rm.Type.RequiresApproval() {
		status = StatusPending
	}

	b := &Booking{
		RoomID:    req.RoomID,
		UserID:    req.UserID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    status,
	}

	// The repository serializes the overlap check and the insert per room, so
	// two concurrent requests for the same slot cannot both commit.
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("room_id", b.RoomID),
		zap.String("status", string(b.Status)),
	)

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Modify(ctx context.Context, id string, req UpdateRequest) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoomID != nil && *req.RoomID != b.RoomID {
		currentRoom, err := s.roomService.GetByID(ctx, b.RoomID)
		if err != nil {
			return nil, err
		}
		newRoom, err := s.roomService.GetByID(ctx, *req.RoomID)
		if err != nil {
			if errors.Is(err, room.ErrNotFound) {
				return nil, ErrRoomNotFound
			}
			return nil, err
		}
		if newRoom.Type != currentRoom.Type {
			return nil, ErrRoomTypeMismatch
		}
		b.RoomID = *req.RoomID
	}

	if req.Date != nil {
		b.Date = *req.Date
	}
	if req.StartTime != nil {
		b.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		b.EndTime = *req.EndTime
	}

	if !b.StartTime.Valid() || !b.EndTime.Valid() || b.StartTime >= b.EndTime {
		return nil, ErrInvalidTimeRange
	}

	// Overlap is re-checked against the prospective final state, excluding
	// this booking's own slot, in the same atomic unit as the write.
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *service) Approve(ctx context.Context, id string, approve bool) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rm, err := s.roomService.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}
	if !rm.Type.RequiresApproval() {
		return nil, ErrApprovalNotAllowed
	}

	if !approve {
		// Declining removes the booking entirely; it does not linger in
		// pending state.
		if err := s.repo.Delete(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Info("booking declined", zap.String("booking_id", id))
		return nil, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusConfirmed); err != nil {
		return nil, err
	}
	b.Status = StatusConfirmed

	s.logger.Info("booking approved", zap.String("booking_id", id))

	return b, nil
}

func (s *service) Cancel(ctx context.Context, id string, userID string) error {
	// Any caller may cancel any booking by id; ownership enforcement is a
	// transport-boundary policy, not an engine rule.
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("booking cancelled",
		zap.String("booking_id", id),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *service) CancelWithReason(ctx context.Context, id string, reason string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("booking cancelled by manager",
		zap.String("booking_id", id),
		zap.String("reason", reason),
	)

	// Fire-and-forget: the reason is forwarded for notification and dropped.
	// A notifier failure never reaches the caller.
	go s.notifier.Notify(context.WithoutCancel(ctx), id, b.UserID, reason)

	return nil
}
