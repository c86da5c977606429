package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roomreserve/room-booking-backend/internal/pkg/timeslot"
)

type Repository interface {
	// Create inserts the booking after checking for overlap. The check and the
	// insert run in one transaction serialized per room, so concurrent
	// requests for the same room cannot both pass the check.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Update rewrites the booking's room, date and time range, re-running the
	// overlap check (excluding the booking itself) in the same transaction.
	Update(ctx context.Context, b *Booking) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func pgTime(t timeslot.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

// translatePgError maps constraint violations raised by the bookings exclusion
// constraint onto the domain conflict error.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
		return ErrTimeConflict
	}
	return err
}

// isTransientTxError reports whether the transaction failed on a concurrency
// signal worth one retry.
func isTransientTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

// inRoomTx runs fn inside a transaction holding a per-room advisory lock, so
// check-then-write sequences for the same room are serialized while bookings
// for different rooms proceed independently. Transient transaction conflicts
// are retried once.
func (r *pgxRepository) inRoomTx(ctx context.Context, roomID string, fn func(tx pgx.Tx) error) error {
	run := func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin booking tx failed: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", roomID); err != nil {
			return fmt.Errorf("acquire room lock failed: %w", err)
		}

		if err := fn(tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	err := run()
	if isTransientTxError(err) {
		err = run()
	}
	return translatePgError(err)
}

// hasOverlapTx tests whether any active booking for the room and date
// intersects the half-open range [start,end). excludeID skips the booking
// being modified.
func hasOverlapTx(ctx context.Context, tx pgx.Tx, b *Booking, excludeID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"room_id": b.RoomID}).
		Where(squirrel.Eq{"booking_date": b.Date}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		Where(squirrel.Lt{"start_time": pgTime(b.EndTime)}).
		Where(squirrel.Gt{"end_time": pgTime(b.StartTime)})

	if excludeID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	return r.inRoomTx(ctx, b.RoomID, func(tx pgx.Tx) error {
		overlap, err := hasOverlapTx(ctx, tx, b, "")
		if err != nil {
			return err
		}
		if overlap {
			return ErrTimeConflict
		}

		const query = `
			INSERT INTO public.bookings (room_id, user_id, booking_date, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRow(ctx, query,
			b.RoomID, b.UserID, b.Date, pgTime(b.StartTime), pgTime(b.EndTime), b.Status,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return fmt.Errorf("create booking failed: %w", err)
		}
		return nil
	})
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var start, end pgtype.Time
	if err := row.Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.Date, &start, &end, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.StartTime = timeslot.FromMicroseconds(start.Microseconds)
	b.EndTime = timeslot.FromMicroseconds(end.Microseconds)
	return &b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	const query = `
		SELECT id, room_id, user_id, booking_date, start_time, end_time, status, created_at, updated_at
		FROM public.bookings
		WHERE id = $1
	`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "room_id", "user_id", "booking_date", "start_time", "end_time",
		"status", "created_at", "updated_at",
		"count(*) OVER() as total_count",
	).From("public.bookings")

	if filter.RoomID != "" {
		query = query.Where(squirrel.Eq{"room_id": filter.RoomID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Date != nil {
		query = query.Where(squirrel.Eq{"booking_date": *filter.Date})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	query = query.OrderBy("booking_date ASC", "start_time ASC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		var start, end pgtype.Time
		if err := rows.Scan(
			&b.ID, &b.RoomID, &b.UserID, &b.Date, &start, &end,
			&b.Status, &b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		b.StartTime = timeslot.FromMicroseconds(start.Microseconds)
		b.EndTime = timeslot.FromMicroseconds(end.Microseconds)
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	return r.inRoomTx(ctx, b.RoomID, func(tx pgx.Tx) error {
		overlap, err := hasOverlapTx(ctx, tx, b, b.ID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrTimeConflict
		}

		const query = `
			UPDATE public.bookings
			SET room_id = $1, booking_date = $2, start_time = $3, end_time = $4, updated_at = now()
			WHERE id = $5
		`
		ct, err := tx.Exec(ctx, query,
			b.RoomID, b.Date, pgTime(b.StartTime), pgTime(b.EndTime), b.ID,
		)
		if err != nil {
			return fmt.Errorf("update booking failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	const query = `
		UPDATE public.bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
	`
	ct, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update booking status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.bookings WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
