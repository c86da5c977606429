package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomreserve/room-booking-backend/internal/booking"
	"github.com/roomreserve/room-booking-backend/internal/pkg/timeslot"
	"github.com/roomreserve/room-booking-backend/internal/room"
)

// fakeRepo is an in-memory booking.Repository. Like the real repository, the
// overlap check and the write happen under one lock, so concurrent Create
// calls cannot both pass the check.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bookings: map[string]*booking.Booking{}}
}

func (f *fakeRepo) hasOverlap(b *booking.Booking, excludeID string) bool {
	for _, existing := range f.bookings {
		if existing.ID == excludeID || existing.RoomID != b.RoomID || !existing.Active() {
			continue
		}
		if !existing.Date.Equal(b.Date) {
			continue
		}
		if timeslot.Overlaps(existing.StartTime, existing.EndTime, b.StartTime, b.EndTime) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) Create(ctx context.Context, b *booking.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasOverlap(b, "") {
		return booking.ErrTimeConflict
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*booking.Booking
	for _, b := range f.bookings {
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Update(ctx context.Context, b *booking.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	if f.hasOverlap(b, b.ID) {
		return booking.ErrTimeConflict
	}
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id string, status booking.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return booking.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return booking.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

// fakeRoomService is an in-memory room.Service.
type fakeRoomService struct {
	rooms map[string]*room.Room
}

func newFakeRoomService(rooms ...*room.Room) *fakeRoomService {
	s := &fakeRoomService{rooms: map[string]*room.Room{}}
	for _, r := range rooms {
		s.rooms[r.ID] = r
	}
	return s
}

func (s *fakeRoomService) Create(ctx context.Context, req room.CreateRequest) (*room.Room, error) {
	r := &room.Room{ID: uuid.NewString(), Name: req.Name, Type: req.Type, Capacity: req.Capacity}
	s.rooms[r.ID] = r
	return r, nil
}

func (s *fakeRoomService) GetByID(ctx context.Context, id string) (*room.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return r, nil
}

func (s *fakeRoomService) List(ctx context.Context, filter room.Filter) ([]*room.Room, int, error) {
	var out []*room.Room
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (s *fakeRoomService) Delete(ctx context.Context, id string) error {
	delete(s.rooms, id)
	return nil
}

// recordingNotifier captures Notify calls for assertions on the async path.
type recordingNotifier struct {
	calls chan [3]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(chan [3]string, 8)}
}

func (n *recordingNotifier) Notify(ctx context.Context, bookingID, owner, reason string) {
	n.calls <- [3]string{bookingID, owner, reason}
}

func at(t *testing.T, s string) timeslot.TimeOfDay {
	t.Helper()
	v, err := timeslot.Parse(s)
	require.NoError(t, err)
	return v
}

type fixture struct {
	repo     *fakeRepo
	rooms    *fakeRoomService
	notifier *recordingNotifier
	service  booking.Service

	partyRoom *room.Room
	studyRoom *room.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	partyRoom := &room.Room{ID: uuid.NewString(), Name: "Party Hall", Type: room.TypeParty, Capacity: 150}
	studyRoom := &room.Room{ID: uuid.NewString(), Name: "Study Room", Type: room.TypeStudy, Capacity: 25}

	repo := newFakeRepo()
	rooms := newFakeRoomService(partyRoom, studyRoom)
	notifier := newRecordingNotifier()
	service := booking.NewService(repo, rooms, notifier, zap.NewNop())

	return &fixture{
		repo:      repo,
		rooms:     rooms,
		notifier:  notifier,
		service:   service,
		partyRoom: partyRoom,
		studyRoom: studyRoom,
	}
}

func (f *fixture) createReq(roomID, start, end string, t *testing.T) booking.CreateRequest {
	t.Helper()
	return booking.CreateRequest{
		RoomID:    roomID,
		UserID:    "user-1",
		Date:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		StartTime: at(t, start),
		EndTime:   at(t, end),
	}
}

func TestCreateConfirmationDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("study room confirms immediately", func(t *testing.T) {
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, b.Status)
	})

	t.Run("party room waits for approval", func(t *testing.T) {
		b, err := f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPending, b.Status)
	})
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("start must precede end", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "11:00", "10:00", t))
		assert.ErrorIs(t, err, booking.ErrInvalidTimeRange)
	})

	t.Run("zero-length range rejected", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "10:00", t))
		assert.ErrorIs(t, err, booking.ErrInvalidTimeRange)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(uuid.NewString(), "10:00", "11:00", t))
		assert.ErrorIs(t, err, booking.ErrRoomNotFound)
	})
}

func TestCreateOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
	require.NoError(t, err)

	t.Run("contained range conflicts", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:30", "11:30", t))
		assert.ErrorIs(t, err, booking.ErrTimeConflict)
	})

	t.Run("back-to-back slot is accepted", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "11:00", "12:00", t))
		assert.NoError(t, err)
	})

	t.Run("slot ending at existing start is accepted", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "09:00", "10:00", t))
		assert.NoError(t, err)
	})

	t.Run("other room is unaffected", func(t *testing.T) {
		_, err := f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		assert.NoError(t, err)
	})

	t.Run("other date is unaffected", func(t *testing.T) {
		req := f.createReq(f.studyRoom.ID, "10:00", "11:00", t)
		req.Date = req.Date.AddDate(0, 0, 1)
		_, err := f.service.Create(ctx, req)
		assert.NoError(t, err)
	})
}

func TestModify(t *testing.T) {
	ctx := context.Background()

	t.Run("room type change rejected", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		_, err = f.service.Modify(ctx, b.ID, booking.UpdateRequest{RoomID: &f.studyRoom.ID})
		assert.ErrorIs(t, err, booking.ErrRoomTypeMismatch)
	})

	t.Run("move to same-type room succeeds", func(t *testing.T) {
		f := newFixture(t)
		otherStudy := &room.Room{ID: uuid.NewString(), Name: "Study Room 2", Type: room.TypeStudy, Capacity: 10}
		f.rooms.rooms[otherStudy.ID] = otherStudy

		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		updated, err := f.service.Modify(ctx, b.ID, booking.UpdateRequest{RoomID: &otherStudy.ID})
		require.NoError(t, err)
		assert.Equal(t, otherStudy.ID, updated.RoomID)
		assert.Equal(t, booking.StatusConfirmed, updated.Status)
	})

	t.Run("time change re-validates overlap", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "12:00", "13:00", t))
		require.NoError(t, err)

		// Moving onto the occupied slot conflicts.
		start, end := at(t, "10:30"), at(t, "11:30")
		_, err = f.service.Modify(ctx, b.ID, booking.UpdateRequest{StartTime: &start, EndTime: &end})
		assert.ErrorIs(t, err, booking.ErrTimeConflict)

		// A free slot succeeds.
		start, end = at(t, "14:00"), at(t, "15:00")
		updated, err := f.service.Modify(ctx, b.ID, booking.UpdateRequest{StartTime: &start, EndTime: &end})
		require.NoError(t, err)
		assert.Equal(t, "14:00", updated.StartTime.String())
	})

	t.Run("shifting own slot does not conflict with itself", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		start, end := at(t, "10:30"), at(t, "11:30")
		_, err = f.service.Modify(ctx, b.ID, booking.UpdateRequest{StartTime: &start, EndTime: &end})
		assert.NoError(t, err)
	})

	t.Run("invalid prospective range rejected", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		start := at(t, "12:00")
		_, err = f.service.Modify(ctx, b.ID, booking.UpdateRequest{StartTime: &start})
		assert.ErrorIs(t, err, booking.ErrInvalidTimeRange)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Modify(ctx, uuid.NewString(), booking.UpdateRequest{})
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("non-party room rejected", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		_, err = f.service.Approve(ctx, b.ID, true)
		assert.ErrorIs(t, err, booking.ErrApprovalNotAllowed)
	})

	t.Run("approve confirms", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		approved, err := f.service.Approve(ctx, b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, approved.Status)

		stored, err := f.service.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, stored.Status)
	})

	t.Run("decline removes the booking", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		declined, err := f.service.Approve(ctx, b.ID, false)
		require.NoError(t, err)
		assert.Nil(t, declined)

		_, err = f.service.GetByID(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)

		// The slot is free again.
		_, err = f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		assert.NoError(t, err)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Approve(ctx, uuid.NewString(), true)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the booking", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		require.NoError(t, f.service.Cancel(ctx, b.ID, "user-1"))

		_, err = f.service.GetByID(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("any caller may cancel", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.studyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		assert.NoError(t, f.service.Cancel(ctx, b.ID, "someone-else"))
	})

	t.Run("unknown id is not silent success", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.Cancel(ctx, uuid.NewString(), "user-1")
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})
}

func TestCancelWithReason(t *testing.T) {
	ctx := context.Background()

	t.Run("removes and notifies", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.service.Create(ctx, f.createReq(f.partyRoom.ID, "10:00", "11:00", t))
		require.NoError(t, err)

		require.NoError(t, f.service.CancelWithReason(ctx, b.ID, "double booked by staff"))

		_, err = f.service.GetByID(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)

		select {
		case call := <-f.notifier.calls:
			assert.Equal(t, b.ID, call[0])
			assert.Equal(t, "user-1", call[1])
			assert.Equal(t, "double booked by staff", call[2])
		case <-time.After(time.Second):
			t.Fatal("notifier was not invoked")
		}
	})

	t.Run("unknown id does not notify", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.CancelWithReason(ctx, uuid.NewString(), "reason")
		assert.ErrorIs(t, err, booking.ErrNotFound)

		select {
		case <-f.notifier.calls:
			t.Fatal("notifier should not be invoked for a missing booking")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestConcurrentCreateSameSlot(t *testing.T) {
	ctx := context.Background()
	const callers = 8
	const rounds = 25

	for round := 0; round < rounds; round++ {
		f := newFixture(t)
		req := f.createReq(f.studyRoom.ID, "10:00", "11:00", t)

		var wg sync.WaitGroup
		results := make(chan error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.service.Create(ctx, req)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var successes, conflicts int
		for err := range results {
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, booking.ErrTimeConflict):
				conflicts++
			}
		}

		require.Equal(t, 1, successes, "exactly one of the concurrent creates must win")
		require.Equal(t, callers-1, conflicts)
	}
}

func TestNoOverlapInvariantUnderLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Many goroutines hammer overlapping hour slots on one room; whatever
	// subset commits, no two committed ranges may intersect.
	slots := []struct{ start, end string }{
		{"09:00", "10:30"},
		{"10:00", "11:00"},
		{"10:30", "12:00"},
		{"11:00", "11:30"},
		{"09:30", "10:00"},
	}
	var reqs []booking.CreateRequest
	for _, slot := range slots {
		reqs = append(reqs, f.createReq(f.studyRoom.ID, slot.start, slot.end, t))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		for _, req := range reqs {
			wg.Add(1)
			go func(req booking.CreateRequest) {
				defer wg.Done()
				_, _ = f.service.Create(ctx, req)
			}(req)
		}
	}
	wg.Wait()

	committed, _, err := f.repo.List(ctx, booking.Filter{RoomID: f.studyRoom.ID})
	require.NoError(t, err)
	require.NotEmpty(t, committed)

	for i, a := range committed {
		for j, b := range committed {
			if i == j {
				continue
			}
			assert.False(t,
				timeslot.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
				"bookings %s and %s overlap", a.ID, b.ID,
			)
		}
	}
}
